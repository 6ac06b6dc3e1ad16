// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// The serialized registry is:
//
//   <version><num sidechains>[<sidechain>...]
//
//   Field              Type      Size
//   version            byte      1
//   num sidechains     VLQ       variable
//   sidechain:
//     id               byte      1
//     flags            byte      1 (bit 0 = active)
//     created height   int32     4
//     escrow balance   uint64    8
//     num bundles      VLQ       variable
//     bundle:
//       hash           [32]byte  32
//       yes votes      uint32    4
//       flags          byte      1 (bit 0 = approved, bit 1 = executed)
//       created height int32     4
//
// Sidechains are ordered by id and bundles by hash bytes so equal registries
// serialize to equal bytes.  Integers are little endian; VLQ is the bitcoin
// variable length integer.
//
// The serialized undo record is:
//
//   <version><num entries>[<kind><sidechain><hash?><amount?>...]
//
// where the hash is present for bundle kinds and the amount, a uint64, for
// escrow kinds.

const (
	stateVersion = 1
	undoVersion  = 1

	// pver is the protocol version handed to the var-int codec.  It has no
	// effect on its encoding.
	pver = 0

	flagActive   = 1 << 0
	flagApproved = 1 << 0
	flagExecuted = 1 << 1
)

var le = binary.LittleEndian

// Serialize returns the canonical encoding of the registry.
func (s *State) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(stateVersion)
	_ = wire.WriteVarInt(&buf, pver, uint64(len(s.sidechains)))
	for _, id := range s.sortedIDs() {
		sc := s.sidechains[id]
		var flags byte
		if sc.IsActive {
			flags |= flagActive
		}
		buf.Write([]byte{sc.ID, flags})
		buf.Write(le.AppendUint32(nil, uint32(sc.CreatedHeight)))
		buf.Write(le.AppendUint64(nil, uint64(sc.EscrowBalance)))

		_ = wire.WriteVarInt(&buf, pver, uint64(len(sc.Bundles)))
		for _, b := range sc.sortedBundles() {
			var flags byte
			if b.Approved {
				flags |= flagApproved
			}
			if b.Executed {
				flags |= flagExecuted
			}
			buf.Write(b.Hash[:])
			buf.Write(le.AppendUint32(nil, b.YesVotes))
			buf.WriteByte(flags)
			buf.Write(le.AppendUint32(nil, uint32(b.CreatedHeight)))
		}
	}
	return buf.Bytes()
}

// decodeReader wraps a bytes.Reader and turns every short read into a
// DeserializeError naming the field.
type decodeReader struct {
	r *bytes.Reader
}

func (d *decodeReader) fail(field string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return DeserializeError(fmt.Sprintf("unexpected end of data "+
			"reading %s", field))
	}
	return DeserializeError(fmt.Sprintf("reading %s: %v", field, err))
}

func (d *decodeReader) readByte(field string) (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.fail(field, err)
	}
	return b, nil
}

func (d *decodeReader) readBytes(field string, dst []byte) error {
	if _, err := io.ReadFull(d.r, dst); err != nil {
		return d.fail(field, err)
	}
	return nil
}

func (d *decodeReader) readUint32(field string) (uint32, error) {
	var b [4]byte
	if err := d.readBytes(field, b[:]); err != nil {
		return 0, err
	}
	return le.Uint32(b[:]), nil
}

func (d *decodeReader) readUint64(field string) (uint64, error) {
	var b [8]byte
	if err := d.readBytes(field, b[:]); err != nil {
		return 0, err
	}
	return le.Uint64(b[:]), nil
}

// count reads a var-int and bounds it by the bytes left, since every counted
// element takes at least minSize bytes.
func (d *decodeReader) count(field string, minSize int) (int, error) {
	n, err := wire.ReadVarInt(d.r, pver)
	if err != nil {
		return 0, d.fail(field, err)
	}
	if n > uint64(d.r.Len()/minSize) {
		return 0, DeserializeError(fmt.Sprintf("%s %d exceeds the "+
			"remaining data", field, n))
	}
	return int(n), nil
}

func (d *decodeReader) finish() error {
	if d.r.Len() != 0 {
		return DeserializeError(fmt.Sprintf("%d trailing bytes", d.r.Len()))
	}
	return nil
}

// DeserializeState decodes a registry produced by Serialize.
func DeserializeState(serialized []byte) (*State, error) {
	d := &decodeReader{r: bytes.NewReader(serialized)}
	version, err := d.readByte("version")
	if err != nil {
		return nil, err
	}
	if version != stateVersion {
		return nil, DeserializeError(fmt.Sprintf("unknown registry "+
			"version %d", version))
	}

	numSidechains, err := d.count("sidechain count", 15)
	if err != nil {
		return nil, err
	}
	state := NewState()
	for i := 0; i < numSidechains; i++ {
		id, err := d.readByte("sidechain id")
		if err != nil {
			return nil, err
		}
		if _, ok := state.sidechains[id]; ok {
			return nil, DeserializeError(fmt.Sprintf("duplicate "+
				"sidechain %d", id))
		}
		flags, err := d.readByte("sidechain flags")
		if err != nil {
			return nil, err
		}
		created, err := d.readUint32("sidechain height")
		if err != nil {
			return nil, err
		}
		escrow, err := d.readUint64("escrow balance")
		if err != nil {
			return nil, err
		}
		if int64(escrow) < 0 {
			return nil, DeserializeError(fmt.Sprintf("negative escrow "+
				"for sidechain %d", id))
		}

		sc := &Sidechain{
			ID:            id,
			IsActive:      flags&flagActive != 0,
			EscrowBalance: int64(escrow),
			CreatedHeight: int32(created),
		}
		numBundles, err := d.count("bundle count", 41)
		if err != nil {
			return nil, err
		}
		sc.Bundles = make(map[chainhash.Hash]*Bundle, numBundles)
		for j := 0; j < numBundles; j++ {
			b := &Bundle{Sidechain: id}
			if err := d.readBytes("bundle hash", b.Hash[:]); err != nil {
				return nil, err
			}
			if b.YesVotes, err = d.readUint32("yes votes"); err != nil {
				return nil, err
			}
			flags, err := d.readByte("bundle flags")
			if err != nil {
				return nil, err
			}
			height, err := d.readUint32("bundle height")
			if err != nil {
				return nil, err
			}
			b.Approved = flags&flagApproved != 0
			b.Executed = flags&flagExecuted != 0
			b.CreatedHeight = int32(height)
			if b.Executed && !b.Approved {
				return nil, DeserializeError(fmt.Sprintf("bundle %v is "+
					"executed but not approved", b.Hash))
			}
			if _, ok := sc.Bundles[b.Hash]; ok {
				return nil, DeserializeError(fmt.Sprintf("duplicate "+
					"bundle %v", b.Hash))
			}
			sc.Bundles[b.Hash] = b
		}
		state.sidechains[id] = sc
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return state, nil
}

func (k undoKind) hasHash() bool {
	switch k {
	case undoCreateBundle, undoVote, undoApprove, undoExecute:
		return true
	}
	return false
}

func (k undoKind) hasAmount() bool {
	return k == undoEscrowCredit || k == undoEscrowDebit
}

// Serialize returns the encoding of the undo record.
func (u *UndoRecord) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(undoVersion)
	_ = wire.WriteVarInt(&buf, pver, uint64(len(u.entries)))
	for i := range u.entries {
		e := &u.entries[i]
		buf.Write([]byte{byte(e.kind), e.sidechain})
		if e.kind.hasHash() {
			buf.Write(e.hash[:])
		}
		if e.kind.hasAmount() {
			buf.Write(le.AppendUint64(nil, uint64(e.amount)))
		}
	}
	return buf.Bytes()
}

// DeserializeUndoRecord decodes an undo record produced by Serialize.
func DeserializeUndoRecord(serialized []byte) (*UndoRecord, error) {
	d := &decodeReader{r: bytes.NewReader(serialized)}
	version, err := d.readByte("version")
	if err != nil {
		return nil, err
	}
	if version != undoVersion {
		return nil, DeserializeError(fmt.Sprintf("unknown undo version %d",
			version))
	}
	n, err := d.count("undo entry count", 2)
	if err != nil {
		return nil, err
	}

	undo := &UndoRecord{}
	if n > 0 {
		undo.entries = make([]undoEntry, n)
	}
	for i := range undo.entries {
		e := &undo.entries[i]
		kind, err := d.readByte("undo kind")
		if err != nil {
			return nil, err
		}
		e.kind = undoKind(kind)
		if e.kind >= numUndoKinds {
			return nil, DeserializeError(fmt.Sprintf("unknown undo kind "+
				"%d", kind))
		}
		if e.sidechain, err = d.readByte("undo sidechain"); err != nil {
			return nil, err
		}
		if e.kind.hasHash() {
			if err := d.readBytes("undo bundle hash", e.hash[:]); err != nil {
				return nil, err
			}
		}
		if e.kind.hasAmount() {
			amount, err := d.readUint64("undo amount")
			if err != nil {
				return nil, err
			}
			if int64(amount) <= 0 {
				return nil, DeserializeError("undo amount out of range")
			}
			e.amount = int64(amount)
		}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return undo, nil
}
