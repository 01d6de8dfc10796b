package nspccompile

// aramFileOffset is the file offset of the start of the 64KiB ARAM region
// within an SPC image (§6.1).
const aramFileOffset = 0x100

// ApplyUploadToSpcImage returns a copy of baseSpc with every chunk's bytes
// written at 0x100 + chunk.address.
func ApplyUploadToSpcImage(upload *UploadList, baseSpc []byte) []byte {
	out := make([]byte, len(baseSpc))
	copy(out, baseSpc)
	for _, c := range upload.Chunks {
		start := aramFileOffset + int(c.Address)
		end := start + len(c.Bytes)
		if end > len(out) {
			continue
		}
		copy(out[start:end], c.Bytes)
	}
	return out
}

// BuildUserContentNspcExport emits a coalesced NSPC-format byte stream: one
// (length, address, bytes) record per maximal address-contiguous run of
// chunks, followed by a zero-length terminator and entry point (§6.2).
func BuildUserContentNspcExport(upload *UploadList, entryPoint uint16) []byte {
	runs := coalesceRuns(upload.Chunks)

	var out []byte
	for _, r := range runs {
		out = append(out, uint8(len(r.bytes)), uint8(len(r.bytes)>>8))
		out = append(out, uint8(r.address), uint8(r.address>>8))
		out = append(out, r.bytes...)
	}
	out = append(out, 0x00, 0x00, uint8(entryPoint), uint8(entryPoint>>8))
	return out
}

type run struct {
	address uint16
	bytes   []byte
}

// coalesceRuns merges chunks into maximal address-contiguous byte runs,
// processing chunks in address order.
func coalesceRuns(chunks []UploadChunk) []run {
	sorted := append([]UploadChunk(nil), chunks...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Address > sorted[j].Address; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	var runs []run
	for _, c := range sorted {
		if len(c.Bytes) == 0 {
			continue
		}
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if last.address+uint16(len(last.bytes)) == c.Address {
				last.bytes = append(last.bytes, c.Bytes...)
				continue
			}
		}
		runs = append(runs, run{address: c.Address, bytes: append([]byte(nil), c.Bytes...)})
	}
	return runs
}
