package htsreader

import (
	"testing"

	"github.com/biogo/hts/sam"
)

func TestToAlignmentRecordMapped(t *testing.T) {
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	if _, err := sam.NewHeader(nil, []*sam.Reference{ref}); err != nil {
		t.Fatalf("NewHeader: %v", err)
	}

	cigar, err := sam.ParseCigar([]byte("10M2I3D"))
	if err != nil {
		t.Fatalf("ParseCigar: %v", err)
	}
	aux, err := sam.NewAux(sam.NewTag("NM"), 2)
	if err != nil {
		t.Fatalf("NewAux: %v", err)
	}

	rec := &sam.Record{
		Name:      "read1",
		Ref:       ref,
		Pos:       99,
		Cigar:     cigar,
		AuxFields: sam.AuxFields{aux},
	}

	got := toAlignmentRecord(rec)
	if got.ReadID != "read1" {
		t.Fatalf("ReadID = %q", got.ReadID)
	}
	if got.RefIndex != ref.ID() {
		t.Fatalf("RefIndex = %d, want %d", got.RefIndex, ref.ID())
	}
	if got.Pos != 99 {
		t.Fatalf("Pos = %d", got.Pos)
	}
	if got.EditDistance != 2 {
		t.Fatalf("EditDistance = %d", got.EditDistance)
	}
	if got.Span() != 13 { // 10M + 3D consume reference, 2I does not
		t.Fatalf("Span = %d", got.Span())
	}
}

func TestToAlignmentRecordUnmapped(t *testing.T) {
	rec := &sam.Record{Name: "read2", Flags: sam.Unmapped}
	got := toAlignmentRecord(rec)
	if !got.Unmapped() {
		t.Fatalf("expected Unmapped() true")
	}
	if got.ReadID != "read2" {
		t.Fatalf("ReadID = %q", got.ReadID)
	}
}
