package chunker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"lexrag/internal/domain"
)

// ConstitutionChunker splits a constitution JSON document into passage
// chunks. One chunk per preamble, per additional article, and per article
// inside a chapter or section.
type ConstitutionChunker struct{}

func NewConstitutionChunker() *ConstitutionChunker {
	return &ConstitutionChunker{}
}

type constitutionDoc struct {
	Title    string        `json:"title"`
	Date     string        `json:"date"`
	Preamble string        `json:"preamble"`
	Articles []articleJSON `json:"articles"`
	Chapters []chapterJSON `json:"chapters"`
}

type chapterJSON struct {
	Number   interface{}   `json:"number"`
	Title    string        `json:"title"`
	Sections []sectionJSON `json:"sections"`
	Articles []articleJSON `json:"articles"`
}

type sectionJSON struct {
	Title    string        `json:"title"`
	Articles []articleJSON `json:"articles"`
}

type articleJSON struct {
	Number  interface{} `json:"number"`
	Content string      `json:"content"`
}

// Chunk parses data as constitution JSON and emits one chunk per passage.
// Chunk IDs are derived from the document slug and the passage position, so
// re-chunking the same source yields identical IDs.
func (c *ConstitutionChunker) Chunk(name string, data []byte) ([]domain.Chunk, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc constitutionDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	title := doc.Title
	if title == "" {
		title = "Constitution"
	}
	slug := Slugify(title)
	year := ExtractYear(doc.Date)

	var chunks []domain.Chunk

	add := func(key string, p domain.Passage) {
		chunks = append(chunks, domain.Chunk{
			ID:      chunkID(key),
			Key:     key,
			Slug:    slug,
			Year:    year,
			Passage: p,
		})
	}

	base := fmt.Sprintf("%s-%d", slug, year)

	if doc.Preamble != "" {
		add(base+"/preamble", domain.Passage{
			Title:   title,
			Content: doc.Preamble,
			Section: "Preamble",
		})
	}

	// Additional articles carry no chapter or section.
	for _, a := range doc.Articles {
		add(fmt.Sprintf("%s/article-%s", base, numberString(a.Number)), domain.Passage{
			Title:   title,
			Content: a.Content,
			Article: numberString(a.Number),
		})
	}

	for _, ch := range doc.Chapters {
		chapterNumber := numberString(ch.Number)
		chapterTitle := ch.Title
		if chapterTitle == "" {
			chapterTitle = "Chapter " + chapterNumber
		}
		chapterLabel := fmt.Sprintf("Chapter %s: %s", chapterNumber, strings.TrimSpace(chapterTitle))

		for _, sec := range ch.Sections {
			sectionTitle := sec.Title
			if sectionTitle == "" {
				sectionTitle = chapterLabel
			}
			for _, a := range sec.Articles {
				add(fmt.Sprintf("%s/chapter-%s/article-%s", base, chapterNumber, numberString(a.Number)), domain.Passage{
					Title:   title,
					Content: a.Content,
					Chapter: chapterLabel,
					Section: sectionTitle,
					Article: numberString(a.Number),
				})
			}
		}

		// Articles sitting directly under the chapter, outside any section.
		for _, a := range ch.Articles {
			add(fmt.Sprintf("%s/chapter-%s/article-%s", base, chapterNumber, numberString(a.Number)), domain.Passage{
				Title:   title,
				Content: a.Content,
				Chapter: chapterLabel,
				Article: numberString(a.Number),
			})
		}
	}

	return chunks, nil
}

// chunkID maps a natural key to a stable UUID accepted by the store.
func chunkID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("lexrag://"+key)).String()
}

// numberString renders an article or chapter number the way it appeared in
// the source, without a float suffix for integral JSON numbers.
func numberString(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}

var (
	slugStripRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	yearRe      = regexp.MustCompile(`^(\d{4})-\d{2}-\d{2}`)
)

// Slugify lowercases the title and collapses it to a dash-separated slug.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = slugStripRe.ReplaceAllString(text, "")
	text = slugSpaceRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// ExtractYear pulls the year from an ISO date prefix. The 1947 promulgation
// year is the fallback for undated documents.
func ExtractYear(date string) int {
	m := yearRe.FindStringSubmatch(date)
	if m == nil {
		return 1947
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 1947
	}
	return year
}
