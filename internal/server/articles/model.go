package articles

import "time"

// Status is the publication state of an article.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Type distinguishes feed posts from navigation-only pages.
type Type string

const (
	TypePost Type = "POST"
	TypePage Type = "PAGE"
)

func (t Type) Valid() bool {
	return t == TypePost || t == TypePage
}

// Article is the durable content record. Content is an opaque serialized
// block-structured editor document; the server never interprets it.
type Article struct {
	ID                 string    `json:"id"`
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	Status             Status    `json:"status"`
	Type               Type      `json:"type"`
	Category           string    `json:"category"`
	Excerpt            string    `json:"excerpt"`
	FeaturedImage      string    `json:"featuredImage,omitempty"`
	SeoTitle           string    `json:"seoTitle,omitempty"`
	SeoDescription     string    `json:"seoDescription,omitempty"`
	NftTransactionHash string    `json:"nftTransactionHash,omitempty"`
	NftMetadataUri     string    `json:"nftMetadataUri,omitempty"`
	AuthorID           string    `json:"authorId"`
	PublishedAt        time.Time `json:"publishedAt"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Draft carries the editable fields of an article as submitted by a caller.
// Zero values mean "not supplied" and are filled with defaults on create or
// left untouched on update where the contract says so (slug).
type Draft struct {
	Title              string `json:"title"`
	Content            string `json:"content"`
	Status             Status `json:"status"`
	Type               Type   `json:"type"`
	Category           string `json:"category"`
	Slug               string `json:"slug"`
	Excerpt            string `json:"excerpt"`
	FeaturedImage      string `json:"featuredImage"`
	SeoTitle           string `json:"seoTitle"`
	SeoDescription     string `json:"seoDescription"`
	NftTransactionHash string `json:"nftTransactionHash"`
	NftMetadataUri     string `json:"nftMetadataUri"`
}

// NavPage is the public listing shape for published pages.
type NavPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
