package nextion

import (
	"io"
	"strconv"
)

// Terminator ends every outbound command and every reply frame.
const Terminator = "\xff\xff\xff"

// CmdFlag passed as the text of a StringAssign sends the reference
// as a bare command instead of an assignment.
const CmdFlag = "cmd"

// Command is an outbound message.
type Command interface {
	// Bytes returns the encoded bytes including the terminator.
	Bytes() []byte
	// WriteTo writes the encoded bytes.
	WriteTo(w io.Writer) (int64, error)
}

// NumericAssign sets a numeric attribute, e.g. n0.val=765.
type NumericAssign struct {
	Ref   string
	Value uint32
}

// Bytes implements Command.
func (c NumericAssign) Bytes() []byte {
	b := make([]byte, 0, len(c.Ref)+len(Terminator)+11)
	b = append(b, c.Ref...)
	b = append(b, '=')
	b = strconv.AppendUint(b, uint64(c.Value), 10)
	return append(b, Terminator...)
}

// WriteTo implements Command.
func (c NumericAssign) WriteTo(w io.Writer) (int64, error) {
	return writeBytes(w, c.Bytes())
}

// StringAssign sets a text attribute, e.g. t0.txt="Hello".
// If Text is CmdFlag, Ref is sent as a bare command.
type StringAssign struct {
	Ref  string
	Text string
}

// Bytes implements Command.
func (c StringAssign) Bytes() []byte {
	if c.Text == CmdFlag {
		return RawCommand{Text: c.Ref}.Bytes()
	}
	b := make([]byte, 0, len(c.Ref)+len(c.Text)+len(Terminator)+3)
	b = append(b, c.Ref...)
	b = append(b, '=', '"')
	b = append(b, c.Text...)
	b = append(b, '"')
	return append(b, Terminator...)
}

// WriteTo implements Command.
func (c StringAssign) WriteTo(w io.Writer) (int64, error) {
	return writeBytes(w, c.Bytes())
}

// RawCommand is any instruction understood by the display, e.g. "page 1".
type RawCommand struct {
	Text string
}

// Bytes implements Command.
func (c RawCommand) Bytes() []byte {
	b := make([]byte, 0, len(c.Text)+len(Terminator))
	b = append(b, c.Text...)
	return append(b, Terminator...)
}

// WriteTo implements Command.
func (c RawCommand) WriteTo(w io.Writer) (int64, error) {
	return writeBytes(w, c.Bytes())
}

// Query asks the display for the value of an attribute.
type Query struct {
	Ref string
}

// Bytes implements Command.
func (c Query) Bytes() []byte {
	return RawCommand{Text: "get " + c.Ref}.Bytes()
}

// WriteTo implements Command.
func (c Query) WriteTo(w io.Writer) (int64, error) {
	return writeBytes(w, c.Bytes())
}

func writeBytes(w io.Writer, b []byte) (int64, error) {
	n, err := w.Write(b)
	return int64(n), err
}

// WriteNum assigns value to a numeric attribute.
func (n *Nex) WriteNum(ref string, value uint32) {
	n.send(NumericAssign{Ref: ref, Value: value})
}

// WriteStr assigns text to a text attribute, or sends ref as a
// command if text is CmdFlag.
func (n *Nex) WriteStr(ref, text string) {
	n.send(StringAssign{Ref: ref, Text: text})
}

// WriteCmd sends a raw command.
func (n *Nex) WriteCmd(text string) {
	n.send(RawCommand{Text: text})
}

// Send sends any Command.
func (n *Nex) Send(cmd Command) {
	n.send(cmd)
}
