// Package fragment defines the smallest indexed unit of paper text.
package fragment

import "time"

// Fragment is an indexed unit of document text. Immutable once created:
// retrieval stages only produce new scored views over it.
type Fragment struct {
	id           string
	paperID      string
	arxivID      string
	title        string
	text         string
	section      string
	fragmentType string
	categories   []string
	published    time.Time
	vector       []float32
}

// New creates a fragment.
func New(
	id, paperID, arxivID, title, text, section, fragmentType string,
	categories []string, published time.Time, vector []float32,
) Fragment {
	return Fragment{
		id:           id,
		paperID:      paperID,
		arxivID:      arxivID,
		title:        title,
		text:         text,
		section:      section,
		fragmentType: fragmentType,
		categories:   categories,
		published:    published,
		vector:       vector,
	}
}

// ID returns the fragment identifier, unique within the search backend.
func (f *Fragment) ID() string { return f.id }

// PaperID returns the owning paper identifier.
func (f *Fragment) PaperID() string { return f.paperID }

// ArxivID returns the owning paper's external arXiv identifier.
func (f *Fragment) ArxivID() string { return f.arxivID }

// Title returns the owning paper title.
func (f *Fragment) Title() string { return f.title }

// Text returns the lexical fragment text.
func (f *Fragment) Text() string { return f.text }

// Section returns the section label within the paper.
func (f *Fragment) Section() string { return f.section }

// FragmentType returns the structural type (text, abstract, caption, ...).
func (f *Fragment) FragmentType() string { return f.fragmentType }

// Categories returns the arXiv category tags.
func (f *Fragment) Categories() []string { return f.categories }

// Published returns the paper publication date.
func (f *Fragment) Published() time.Time { return f.published }

// Vector returns the dense embedding, if loaded.
func (f *Fragment) Vector() []float32 { return f.vector }

// HasText reports whether the fragment carries usable lexical text.
// Fragments without text are dropped from the pipeline at the earliest
// stage that sees them.
func (f *Fragment) HasText() bool { return f.text != "" }
