package chunker

import (
	"testing"
)

const fullDoc = `{
	"title": "ROC Constitution",
	"date": "1947-12-25",
	"preamble": "Preamble text.",
	"articles": [
		{"number": "A1", "content": "Additional article one."}
	],
	"chapters": [
		{
			"number": 1,
			"title": "General Provisions",
			"articles": [
				{"number": 1, "content": "Direct article."}
			]
		},
		{
			"number": 2,
			"title": "Rights and Duties of the People",
			"sections": [
				{
					"title": "Section 1: Freedoms",
					"articles": [
						{"number": 8, "content": "Personal freedom shall be guaranteed."}
					]
				},
				{
					"title": "",
					"articles": [
						{"number": 9, "content": "No trial by military tribunal."}
					]
				}
			]
		}
	]
}`

func TestChunkConstitution(t *testing.T) {
	chunks, err := NewConstitutionChunker().Chunk("constitution.json", []byte(fullDoc))
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("Chunk() produced %d chunks, want 5", len(chunks))
	}

	for _, c := range chunks {
		if c.Slug != "roc-constitution" {
			t.Errorf("chunk %s slug = %q, want roc-constitution", c.Key, c.Slug)
		}
		if c.Year != 1947 {
			t.Errorf("chunk %s year = %d, want 1947", c.Key, c.Year)
		}
		if c.Passage.Title != "ROC Constitution" {
			t.Errorf("chunk %s title = %q", c.Key, c.Passage.Title)
		}
		if c.ID == "" {
			t.Errorf("chunk %s has empty ID", c.Key)
		}
	}

	preamble := chunks[0]
	if preamble.Key != "roc-constitution-1947/preamble" {
		t.Errorf("preamble key = %q", preamble.Key)
	}
	if preamble.Passage.Section != "Preamble" || preamble.Passage.Chapter != "" || preamble.Passage.Article != "" {
		t.Errorf("preamble passage = %+v", preamble.Passage)
	}

	additional := chunks[1]
	if additional.Key != "roc-constitution-1947/article-A1" {
		t.Errorf("additional article key = %q", additional.Key)
	}
	if additional.Passage.Article != "A1" || additional.Passage.Chapter != "" || additional.Passage.Section != "" {
		t.Errorf("additional article passage = %+v", additional.Passage)
	}

	direct := chunks[2]
	if direct.Key != "roc-constitution-1947/chapter-1/article-1" {
		t.Errorf("direct article key = %q", direct.Key)
	}
	if direct.Passage.Chapter != "Chapter 1: General Provisions" {
		t.Errorf("direct article chapter = %q", direct.Passage.Chapter)
	}
	if direct.Passage.Section != "" {
		t.Errorf("direct article section = %q, want empty", direct.Passage.Section)
	}

	sectioned := chunks[3]
	if sectioned.Passage.Chapter != "Chapter 2: Rights and Duties of the People" {
		t.Errorf("sectioned article chapter = %q", sectioned.Passage.Chapter)
	}
	if sectioned.Passage.Section != "Section 1: Freedoms" {
		t.Errorf("sectioned article section = %q", sectioned.Passage.Section)
	}
	if sectioned.Passage.Article != "8" {
		t.Errorf("sectioned article number = %q", sectioned.Passage.Article)
	}

	// An unnamed section inherits the chapter label.
	fallback := chunks[4]
	if fallback.Passage.Section != "Chapter 2: Rights and Duties of the People" {
		t.Errorf("fallback section = %q", fallback.Passage.Section)
	}
	if fallback.Key != "roc-constitution-1947/chapter-2/article-9" {
		t.Errorf("fallback key = %q", fallback.Key)
	}
}

func TestChunkIDsAreDeterministic(t *testing.T) {
	c := NewConstitutionChunker()

	first, err := c.Chunk("a.json", []byte(fullDoc))
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Chunk("b.json", []byte(fullDoc))
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	seen := map[string]bool{}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID changed between runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk ID %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestChunkDefaults(t *testing.T) {
	chunks, err := NewConstitutionChunker().Chunk("x.json", []byte(`{"preamble": "text"}`))
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Slug != "constitution" {
		t.Errorf("slug = %q, want constitution", chunks[0].Slug)
	}
	if chunks[0].Year != 1947 {
		t.Errorf("year = %d, want 1947", chunks[0].Year)
	}
	if chunks[0].Passage.Title != "Constitution" {
		t.Errorf("title = %q, want Constitution", chunks[0].Passage.Title)
	}
}

func TestChunkInvalidJSON(t *testing.T) {
	if _, err := NewConstitutionChunker().Chunk("bad.json", []byte("{not json")); err == nil {
		t.Error("Chunk() should fail on malformed JSON")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ROC Constitution", "roc-constitution"},
		{"Additional Articles of the Constitution", "additional-articles-of-the-constitution"},
		{"Hello, World!", "hello-world"},
		{"  padded  title  ", "padded-title"},
		{"中華民國憲法", "中華民國憲法"},
		{"dots.and.periods", "dotsandperiods"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1947-12-25", 1947},
		{"2005-06-10", 2005},
		{"2005-06-10T00:00:00Z", 2005},
		{"", 1947},
		{"undated", 1947},
		{"47-12-25", 1947},
	}

	for _, tt := range tests {
		if got := ExtractYear(tt.in); got != tt.want {
			t.Errorf("ExtractYear(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNumberString(t *testing.T) {
	chunks, err := NewConstitutionChunker().Chunk("x.json", []byte(`{
		"title": "T",
		"articles": [
			{"number": 12, "content": "int"},
			{"number": "12-1", "content": "string"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Passage.Article != "12" {
		t.Errorf("integer article = %q, want 12", chunks[0].Passage.Article)
	}
	if chunks[1].Passage.Article != "12-1" {
		t.Errorf("string article = %q, want 12-1", chunks[1].Passage.Article)
	}
}
