package loot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPlugin is returned when a file does not start with a plugin header record
var ErrInvalidPlugin = errors.New("invalid plugin header")

// maxHeaderData caps the header record body we are willing to read
const maxHeaderData = 16 << 20

const (
	flagMaster = 0x1

	// TES3 HEDR: version(4) flags(4) author(32) description(256) records(4)
	tes3HedrSize       = 300
	tes3DescriptionOff = 40
	tes3DescriptionLen = 256
)

// Plugin is the header information loaded for one plugin file
type Plugin struct {
	name        string
	path        string
	size        int64
	isMaster    bool
	isLight     bool
	masters     []string
	description string
}

// Name returns the plugin file name
func (p *Plugin) Name() string { return p.name }

// Path returns the full path the header was read from
func (p *Plugin) Path() string { return p.path }

// Size returns the file size in bytes
func (p *Plugin) Size() int64 { return p.size }

// IsMaster reports whether the plugin loads in the master block
func (p *Plugin) IsMaster() bool { return p.isMaster }

// IsLight reports whether the plugin is a light plugin
func (p *Plugin) IsLight() bool { return p.isLight }

// Masters returns the plugin's master file names in header order
func (p *Plugin) Masters() []string {
	out := make([]string, len(p.masters))
	copy(out, p.masters)
	return out
}

// Description returns the header description text
func (p *Plugin) Description() string { return p.description }

// LoadPluginHeader reads only the header record of the plugin at path
func LoadPluginHeader(game GameType, path string) (*Plugin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		name: filepath.Base(path),
		path: path,
		size: info.Size(),
	}

	r := bufio.NewReader(f)
	if game.usesTES3Headers() {
		err = p.readTES3(r)
	} else {
		err = p.readTES4(r, game)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	ext := strings.ToLower(filepath.Ext(p.name))
	switch {
	case game.usesTES3Headers():
		p.isMaster = ext == ".esm"
	case game.supportsLightPlugins():
		if ext == ".esm" || ext == ".esl" {
			p.isMaster = true
		}
		if ext == ".esl" {
			p.isLight = true
		}
	}

	return p, nil
}

// readTES4 parses the TES4 record used by every game after Morrowind
func (p *Plugin) readTES4(r io.Reader, game GameType) error {
	header := make([]byte, game.headerSize())
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlugin, err)
	}
	if !bytes.Equal(header[:4], []byte("TES4")) {
		return fmt.Errorf("%w: unexpected record type %q", ErrInvalidPlugin, header[:4])
	}

	dataSize := binary.LittleEndian.Uint32(header[4:8])
	flags := binary.LittleEndian.Uint32(header[8:12])
	p.isMaster = flags&flagMaster != 0
	p.isLight = game.supportsLightPlugins() && flags&game.lightFlag() != 0

	data, err := readRecordData(r, dataSize)
	if err != nil {
		return err
	}

	// Subrecords: type(4) size(2) data; XXXX carries a 32-bit size for the next one.
	var override uint32
	for off := 0; off+6 <= len(data); {
		typ := string(data[off : off+4])
		size := uint32(binary.LittleEndian.Uint16(data[off+4 : off+6]))
		off += 6
		if override != 0 {
			size = override
			override = 0
		}
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return fmt.Errorf("%w: subrecord %s overruns header", ErrInvalidPlugin, typ)
		}
		body := data[off : off+int(size)]
		off += int(size)

		switch typ {
		case "XXXX":
			if len(body) == 4 {
				override = binary.LittleEndian.Uint32(body)
			}
		case "MAST":
			p.masters = append(p.masters, zstring(body))
		case "SNAM":
			p.description = zstring(body)
		}
	}
	return nil
}

// readTES3 parses the Morrowind TES3 record
func (p *Plugin) readTES3(r io.Reader) error {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlugin, err)
	}
	if !bytes.Equal(header[:4], []byte("TES3")) {
		return fmt.Errorf("%w: unexpected record type %q", ErrInvalidPlugin, header[:4])
	}

	data, err := readRecordData(r, binary.LittleEndian.Uint32(header[4:8]))
	if err != nil {
		return err
	}

	for off := 0; off+8 <= len(data); {
		typ := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		off += 8
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return fmt.Errorf("%w: subrecord %s overruns header", ErrInvalidPlugin, typ)
		}
		body := data[off : off+int(size)]
		off += int(size)

		switch typ {
		case "HEDR":
			if len(body) >= tes3HedrSize {
				p.description = zstring(body[tes3DescriptionOff : tes3DescriptionOff+tes3DescriptionLen])
			}
		case "MAST":
			p.masters = append(p.masters, zstring(body))
		}
	}
	return nil
}

func readRecordData(r io.Reader, size uint32) ([]byte, error) {
	if size > maxHeaderData {
		return nil, fmt.Errorf("%w: header record of %d bytes", ErrInvalidPlugin, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated header record: %v", ErrInvalidPlugin, err)
	}
	return data, nil
}

// zstring trims a NUL-terminated field
func zstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
