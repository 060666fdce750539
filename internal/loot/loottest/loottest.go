// Package loottest builds plugin files and game directories for tests.
package loottest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Header flags understood by the engine
const (
	FlagMaster = 0x1
	FlagLight  = 0x200
)

// Plugin describes a TES4-style plugin file to write
type Plugin struct {
	Name        string
	Flags       uint32
	Masters     []string
	Description string
	// ShortHeader writes the 20-byte record header used by Oblivion
	ShortHeader bool
}

// WritePlugin writes a minimal Skyrim Special Edition style plugin into dir and returns its path
func WritePlugin(t testing.TB, dir, name string, master bool, masters ...string) string {
	t.Helper()
	var flags uint32
	if master {
		flags = FlagMaster
	}
	return WritePluginFile(t, dir, Plugin{Name: name, Flags: flags, Masters: masters})
}

// WritePluginFile writes a TES4-style plugin described by p into dir and returns its path
func WritePluginFile(t testing.TB, dir string, p Plugin) string {
	t.Helper()

	var body bytes.Buffer
	hedr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hedr[0:4], 0x3F6B851F) // 0.94 as float32 bits
	writeSubrecord16(&body, "HEDR", hedr)
	writeSubrecord16(&body, "CNAM", zstring("loottest"))
	if p.Description != "" {
		writeSubrecord16(&body, "SNAM", zstring(p.Description))
	}
	for _, m := range p.Masters {
		writeSubrecord16(&body, "MAST", zstring(m))
		writeSubrecord16(&body, "DATA", make([]byte, 8))
	}

	headerSize := 24
	if p.ShortHeader {
		headerSize = 20
	}
	header := make([]byte, headerSize)
	copy(header[0:4], "TES4")
	binary.LittleEndian.PutUint32(header[4:8], uint32(body.Len()))
	binary.LittleEndian.PutUint32(header[8:12], p.Flags)

	// A record body follows the header so the file resembles a real plugin.
	trailer := []byte("GRUP\x00\x00\x00\x00")

	path := filepath.Join(dir, p.Name)
	data := append(append(header, body.Bytes()...), trailer...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteTES3Plugin writes a Morrowind style plugin into dir and returns its path
func WriteTES3Plugin(t testing.TB, dir, name, description string, masters ...string) string {
	t.Helper()

	var body bytes.Buffer
	hedr := make([]byte, 300)
	binary.LittleEndian.PutUint32(hedr[0:4], 0x3F99999A) // 1.2 as float32 bits
	copy(hedr[8:40], "loottest")
	copy(hedr[40:296], description)
	writeSubrecord32(&body, "HEDR", hedr)
	for _, m := range masters {
		writeSubrecord32(&body, "MAST", zstring(m))
		writeSubrecord32(&body, "DATA", make([]byte, 8))
	}

	header := make([]byte, 16)
	copy(header[0:4], "TES3")
	binary.LittleEndian.PutUint32(header[4:8], uint32(body.Len()))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, append(header, body.Bytes()...), 0o644))
	return path
}

// GameDir creates an install directory with an empty Data directory.
// It returns the install path and the data path.
func GameDir(t testing.TB) (string, string) {
	t.Helper()
	install := t.TempDir()
	data := filepath.Join(install, "Data")
	require.NoError(t, os.Mkdir(data, 0o755))
	return install, data
}

// WriteFile writes text to dir/name and returns the path
func WriteFile(t testing.TB, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func writeSubrecord16(buf *bytes.Buffer, typ string, data []byte) {
	buf.WriteString(typ)
	var size [2]byte
	binary.LittleEndian.PutUint16(size[:], uint16(len(data)))
	buf.Write(size[:])
	buf.Write(data)
}

func writeSubrecord32(buf *bytes.Buffer, typ string, data []byte) {
	buf.WriteString(typ)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
	buf.Write(size[:])
	buf.Write(data)
}

func zstring(s string) []byte {
	return append([]byte(s), 0)
}
