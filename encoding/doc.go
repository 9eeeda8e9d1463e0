// Package encoding implements the variable-length integer stream used for
// schematic block ids.
//
// Sponge schematics store the voxel grid in the BlockData byte array as one
// varint per cell, in linear index order (x + width*(z + y*length)). Each value
// is split into 7-bit groups, least-significant group first, and every byte
// except the last one of a value carries the 0x80 continuation bit:
//
//	ids := []int32{0, 1, 300}
//	data := encoding.AppendVarints(nil, ids) // 00 01 ac 02
//	back, err := encoding.DecodeVarints(data)
//
// A value is limited to MaxVarintGroups groups. Longer values are reported as
// errs.ErrVarintOutOfRange rather than a panic, since schematics come from
// untrusted files.
//
// For repeated encoding, VarintEncoder reuses pooled buffers:
//
//	enc := encoding.NewVarintEncoder()
//	defer enc.Reset()
//	enc.WriteSlice(ids)
//	stream := enc.Bytes()
package encoding
