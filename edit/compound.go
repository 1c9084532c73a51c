package edit

import (
	"github.com/rhizome-lab/moss/model"
)

// Position names where Move/Copy place content relative to a destination
// anchor.
type Position int

const (
	Before Position = iota
	After
	PrependContainer
	AppendContainer
)

// Move deletes the named source symbol and inserts its text at dest,
// positioned per pos. The destination is re-located by name in the
// already-modified (post-delete) text, per the "re-location uses the
// symbol name, not stored byte offsets" invariant.
func (e *Editor) Move(source []byte, srcName, destName string, pos Position) ([]byte, error) {
	srcLoc, ok := e.FindSymbol(source, srcName)
	if !ok {
		return nil, model.NewError(model.ErrNotFound, srcName, "move source not found", nil)
	}
	srcText := string(source[srcLoc.StartByte:srcLoc.EndByte])

	modified := Delete(source, srcLoc)
	return e.insertAtDest(modified, destName, pos, srcText)
}

// Copy inserts the named source symbol's text at dest, positioned per
// pos, leaving the source untouched.
func (e *Editor) Copy(source []byte, srcName, destName string, pos Position) ([]byte, error) {
	srcLoc, ok := e.FindSymbol(source, srcName)
	if !ok {
		return nil, model.NewError(model.ErrNotFound, srcName, "copy source not found", nil)
	}
	srcText := string(source[srcLoc.StartByte:srcLoc.EndByte])

	return e.insertAtDest(source, destName, pos, srcText)
}

func (e *Editor) insertAtDest(source []byte, destName string, pos Position, text string) ([]byte, error) {
	switch pos {
	case PrependContainer, AppendContainer:
		body, ok := e.FindContainerBody(source, destName)
		if !ok {
			return nil, model.NewError(model.ErrInvalidOperation, destName, "destination is not a container", nil)
		}
		if pos == PrependContainer {
			return PrependToContainer(source, body, text), nil
		}
		return AppendToContainer(source, body, text), nil
	default:
		loc, ok := e.FindSymbol(source, destName)
		if !ok {
			return nil, model.NewError(model.ErrNotFound, destName, "destination symbol not found", nil)
		}
		if pos == Before {
			return InsertBefore(source, loc, text), nil
		}
		return InsertAfter(source, loc, text), nil
	}
}

// Swap exchanges the whole declaration ranges of nameA and nameB. It
// splices the later range's text into the earlier range's position and
// vice versa in one pass (equivalent to, but simpler than, writing the
// later range first to avoid offset shift: both ranges are computed
// against the same unmodified source, so no re-location is needed).
func (e *Editor) Swap(source []byte, nameA, nameB string) ([]byte, error) {
	locA, ok := e.FindSymbol(source, nameA)
	if !ok {
		return nil, model.NewError(model.ErrNotFound, nameA, "swap operand not found", nil)
	}
	locB, ok := e.FindSymbol(source, nameB)
	if !ok {
		return nil, model.NewError(model.ErrNotFound, nameB, "swap operand not found", nil)
	}
	if locA.StartByte == locB.StartByte {
		return source, nil
	}

	first, second := locA, locB
	if first.StartByte > second.StartByte {
		first, second = second, first
	}

	firstText := string(source[first.StartByte:first.EndByte])
	secondText := string(source[second.StartByte:second.EndByte])

	out := make([]byte, 0, len(source))
	out = append(out, source[:first.StartByte]...)
	out = append(out, secondText...)
	out = append(out, source[first.EndByte:second.StartByte]...)
	out = append(out, firstText...)
	out = append(out, source[second.EndByte:]...)
	return out, nil
}
