package session

// StatusOK is returned by every status operation on success
const StatusOK = 0

// Sort status codes
const (
	SortNullHandle = -1
	SortDirRead    = -2
	SortHeaderLoad = -3
	SortFailed     = -4
)

// Masterlist and userlist load status codes
const (
	LoadNullHandle = -1
	LoadEmptyPath  = -2
	LoadLockFailed = -3
	LoadFailed     = -4
)

// Clear status codes
const (
	ClearNullHandle = -1
	ClearLockFailed = -2
)
