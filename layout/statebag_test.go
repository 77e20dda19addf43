package layout

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
)

func TestFontStatisticsMergeAdditive(t *testing.T) {
	a := NewFontStatistics()
	a.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})
	b := NewFontStatistics()
	b.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})
	b.Record(elements.Font{Family: "Body", Name: "Body-Bold", Size: 16})

	a.MergeAdditive(b)
	if got := a.Families["Body"].Sizes[110]; got != 2 {
		t.Fatalf("expected additive count 2 at size 11.0, got %d", got)
	}
	if got := a.Families["Body"].Sizes[160]; got != 1 {
		t.Fatalf("expected count 1 at size 16.0, got %d", got)
	}
}

// TestSlicerMetadataDoesNotAliasMaster pins the shard-isolation contract:
// a shard writing into its metadata must never mutate the master bag's
// histogram or PDF metadata dict in place.
func TestSlicerMetadataDoesNotAliasMaster(t *testing.T) {
	master := NewStateBag()
	master.Metadata.PDFMetadata["Author"] = "someone"
	master.Metadata.FontStatistics.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})

	sub := master.Slicer([]int{1, 2}, []StateKey{KeyTextElements, KeyMetadata})
	sub.Metadata.FontStatistics.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})
	sub.Metadata.PDFMetadata["Producer"] = "shard"

	if got := master.Metadata.FontStatistics.Families["Body"].Sizes[110]; got != 1 {
		t.Fatalf("expected master histogram untouched by shard writes, got count %d", got)
	}
	if _, leaked := master.Metadata.PDFMetadata["Producer"]; leaked {
		t.Fatal("expected shard PDFMetadata writes isolated from the master")
	}

	master.MergeFrom(sub, []StateKey{KeyMetadata})
	if got := master.Metadata.FontStatistics.Families["Body"].Sizes[110]; got != 3 {
		t.Fatalf("expected additive merge of the shard's full histogram, got count %d", got)
	}
}
