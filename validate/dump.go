package validate

import (
	"strconv"
	"strings"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
)

// Printer receives one formatted line of dump output, without trailing
// newline.
type Printer func(format string, args ...any)

// Dumper renders a metadata record for humans. Output is line-oriented
// text for the diagnostic stream, not a stable format.
type Dumper struct {
	Mem     metaruntime.Memory
	Symbols metaruntime.SymbolResolver
	Print   Printer
}

// DumpMetadata writes a structured dump of the record at md, covering
// the fixed header plus extraSize trailing bytes.
func (d *Dumper) DumpMetadata(md metaruntime.Buffer, extraSize uint64) error {
	m := abi.NewMetadata(d.Mem, md)

	kind, err := m.Kind()
	if err != nil {
		return err
	}
	d.Print("metadata at %#x (kind %#x %s)", uint64(md.Addr), uint64(kind), kind)

	desc, err := m.Description()
	if err != nil {
		return err
	}
	d.Print("  description = %#x %s", uint64(desc.Addr), d.symbol(desc))

	vwt, err := m.ValueWitnesses()
	if err != nil {
		return err
	}
	d.Print("  value-operations table = %#x %s", uint64(vwt.Addr), d.symbol(metaruntime.Buffer{Addr: vwt.Addr}))
	if !vwt.IsNull() {
		if err := d.dumpTable(vwt); err != nil {
			return err
		}
	}

	if extraSize > 0 {
		d.Print("  extra data (%d bytes):", extraSize)
		if err := d.hexDump(md.Addr+abi.ValueHeaderSize, extraSize); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) dumpTable(vwt abi.ValueWitnessTable) error {
	for i := 0; i < abi.NumRequiredWitnesses; i++ {
		w, err := vwt.Witness(i)
		if err != nil {
			return err
		}
		d.Print("    %s = %#x %s", abi.WitnessNames[i], uint64(w.Addr), d.symbol(w))
	}
	size, err := vwt.Size()
	if err != nil {
		return err
	}
	stride, err := vwt.Stride()
	if err != nil {
		return err
	}
	flags, err := vwt.Flags()
	if err != nil {
		return err
	}
	xi, err := vwt.ExtraInhabitantCount()
	if err != nil {
		return err
	}
	d.Print("    size=%d stride=%d flags=%#x extraInhabitants=%d", size, stride, flags, xi)

	if flags&abi.FlagHasEnumWitnesses != 0 {
		for i := 0; i < abi.NumEnumWitnesses; i++ {
			w, err := vwt.EnumWitness(i)
			if err != nil {
				return err
			}
			d.Print("    %s = %#x %s", abi.EnumWitnessNames[i], uint64(w.Addr), d.symbol(w))
		}
	}
	return nil
}

func (d *Dumper) hexDump(addr metaruntime.Address, length uint64) error {
	data, err := d.Mem.Read(addr, length)
	if err != nil {
		return err
	}
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		var b strings.Builder
		for _, c := range data[off:end] {
			const hexdigits = "0123456789abcdef"
			b.WriteByte(hexdigits[c>>4])
			b.WriteByte(hexdigits[c&0xf])
			b.WriteByte(' ')
		}
		d.Print("    +%#04x: %s", off, strings.TrimRight(b.String(), " "))
	}
	return nil
}

// symbol formats a best-effort symbol attribution for an address.
func (d *Dumper) symbol(buf metaruntime.Buffer) string {
	if d.Symbols == nil || buf.IsNull() {
		return ""
	}
	info := d.Symbols.SymbolInfo(buf)
	if info.Symbol == metaruntime.Unknown && info.Library == metaruntime.Unknown {
		return ""
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(info.Symbol)
	if info.Offset != 0 {
		b.WriteByte('+')
		b.WriteString(strconv.FormatUint(info.Offset, 10))
	}
	b.WriteString(" in ")
	b.WriteString(info.Library)
	b.WriteByte(')')
	return b.String()
}
