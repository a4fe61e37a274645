package models

import (
	"encoding/json"
	"errors"
)

// Block types whose data payload embeds an asset reference (file.url).
const (
	BlockTypeImage    = "image"
	BlockTypeAttaches = "attaches"
	BlockTypeHeader   = "header"
	BlockTypeParagraph = "paragraph"
)

var ErrNoAssetData = errors.New("block does not carry an asset reference")

// Block is one node of an article content tree. Data keeps the original raw
// payload, so block kinds this backend does not understand survive every
// rewrite byte-for-byte.
type Block struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Blocks []Block

type assetData struct {
	File assetFile `json:"file"`
}

type assetFile struct {
	URL string `json:"url"`
}

type textData struct {
	Text string `json:"text"`
}

// HasAsset reports whether the block kind embeds a file.url reference.
func (b Block) HasAsset() bool {
	return b.Type == BlockTypeImage || b.Type == BlockTypeAttaches
}

// AssetURL extracts the embedded file URL of an image/attaches block.
func (b Block) AssetURL() (string, error) {
	if !b.HasAsset() {
		return "", ErrNoAssetData
	}
	var data assetData
	if err := json.Unmarshal(b.Data, &data); err != nil {
		return "", err
	}
	return data.File.URL, nil
}

// WithAssetURL returns a copy of the block whose file.url is replaced.
// Sibling fields of the payload (caption, size, ...) are preserved.
func (b Block) WithAssetURL(url string) (Block, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(b.Data, &data); err != nil {
		return Block{}, err
	}

	var file map[string]json.RawMessage
	if raw, ok := data["file"]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &file); err != nil {
			return Block{}, err
		}
	}
	if file == nil {
		file = make(map[string]json.RawMessage)
	}

	encodedURL, err := json.Marshal(url)
	if err != nil {
		return Block{}, err
	}
	file["url"] = encodedURL

	rawFile, err := json.Marshal(file)
	if err != nil {
		return Block{}, err
	}
	data["file"] = rawFile

	rawData, err := json.Marshal(data)
	if err != nil {
		return Block{}, err
	}

	return Block{Type: b.Type, Data: rawData}, nil
}

// Text returns the plain text of a paragraph/header block, empty otherwise.
func (b Block) Text() string {
	if b.Type != BlockTypeParagraph && b.Type != BlockTypeHeader {
		return ""
	}
	var data textData
	if err := json.Unmarshal(b.Data, &data); err != nil {
		return ""
	}
	return data.Text
}

// Clone deep-copies the block so callers can keep the original on failure.
func (b Block) Clone() Block {
	data := make(json.RawMessage, len(b.Data))
	copy(data, b.Data)
	return Block{Type: b.Type, Data: data}
}

func (bs Blocks) Clone() Blocks {
	if bs == nil {
		return nil
	}
	out := make(Blocks, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}

// HeaderBlock builds the single heading block a fresh draft starts with.
func HeaderBlock(text string) Block {
	data, _ := json.Marshal(map[string]interface{}{
		"text":  text,
		"level": 1,
	})
	return Block{Type: BlockTypeHeader, Data: data}
}
