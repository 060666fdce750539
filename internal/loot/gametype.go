// Package loot is the load-order engine: plugin header loading, masterlist and userlist
// metadata, condition evaluation and plugin sorting.
// This file contains the game type table.
package loot

import (
	"fmt"
	"os"
	"path/filepath"
)

// GameType identifies a supported game. Values are published across the C boundary and
// must never be renumbered; new games are appended.
type GameType int

const (
	GameOblivion GameType = iota
	GameSkyrim
	GameFallout3
	GameFalloutNV
	GameFallout4
	GameSkyrimSE
	GameFallout4VR
	GameSkyrimVR
	GameMorrowind
	GameStarfield
	GameOpenMW
	GameOblivionRemastered
)

var gameTypeNames = [...]string{
	GameOblivion:           "Oblivion",
	GameSkyrim:             "Skyrim",
	GameFallout3:           "Fallout3",
	GameFalloutNV:          "FalloutNV",
	GameFallout4:           "Fallout4",
	GameSkyrimSE:           "SkyrimSE",
	GameFallout4VR:         "Fallout4VR",
	GameSkyrimVR:           "SkyrimVR",
	GameMorrowind:          "Morrowind",
	GameStarfield:          "Starfield",
	GameOpenMW:             "OpenMW",
	GameOblivionRemastered: "OblivionRemastered",
}

// String returns the game name
func (g GameType) String() string {
	if g < 0 || int(g) >= len(gameTypeNames) {
		return fmt.Sprintf("GameType(%d)", int(g))
	}
	return gameTypeNames[g]
}

// ParseGameType validates a raw game type value
func ParseGameType(v int) (GameType, error) {
	if v < 0 || v >= len(gameTypeNames) {
		return 0, fmt.Errorf("unknown game type %d", v)
	}
	return GameType(v), nil
}

// usesTES3Headers reports whether plugins use the Morrowind record layout
func (g GameType) usesTES3Headers() bool {
	return g == GameMorrowind || g == GameOpenMW
}

// headerSize is the size of a TES4-style record header
func (g GameType) headerSize() int {
	if g == GameOblivion || g == GameOblivionRemastered {
		return 20
	}
	return 24
}

// supportsLightPlugins reports whether .esl files and the light flag exist for the game
func (g GameType) supportsLightPlugins() bool {
	switch g {
	case GameSkyrimSE, GameSkyrimVR, GameFallout4, GameFallout4VR, GameStarfield:
		return true
	}
	return false
}

// lightFlag is the header flag marking a light plugin
func (g GameType) lightFlag() uint32 {
	if g == GameStarfield {
		return 0x100
	}
	return 0x200
}

// dataPath returns the game's own data directory under the install path
func (g GameType) dataPath(installPath string) string {
	switch g {
	case GameMorrowind:
		return filepath.Join(installPath, "Data Files")
	case GameOpenMW:
		return filepath.Join(installPath, "resources", "vfs")
	case GameOblivionRemastered:
		return filepath.Join(installPath, "OblivionRemastered", "Content", "Dev", "ObvData", "Data")
	default:
		return filepath.Join(installPath, "Data")
	}
}

// gameProbe maps an install-directory marker file to a game
type gameProbe struct {
	files []string
	game  GameType
}

// gameProbes are checked in order; the first marker found wins
var gameProbes = []gameProbe{
	{[]string{"Morrowind.exe"}, GameMorrowind},
	{[]string{"OblivionRemastered.exe", "OblivionRemastered"}, GameOblivionRemastered},
	{[]string{"Oblivion.exe"}, GameOblivion},
	{[]string{"TESV.exe"}, GameSkyrim},
	{[]string{"SkyrimVR.exe"}, GameSkyrimVR},
	{[]string{"SkyrimSE.exe"}, GameSkyrimSE},
	{[]string{"Fallout3.exe"}, GameFallout3},
	{[]string{"FalloutNV.exe", "FalloutNVLauncher.exe"}, GameFalloutNV},
	{[]string{"Fallout4VR.exe"}, GameFallout4VR},
	{[]string{"Fallout4.exe"}, GameFallout4},
	{[]string{"Starfield.exe"}, GameStarfield},
	{[]string{"openmw.cfg"}, GameOpenMW},
}

// DetectGameType guesses the game installed in dir from its executables.
// The second result is false when nothing matched and the SkyrimSE fallback was used.
func DetectGameType(dir string) (GameType, bool) {
	for _, probe := range gameProbes {
		for _, name := range probe.files {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return probe.game, true
			}
		}
	}
	return GameSkyrimSE, false
}
