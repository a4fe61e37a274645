package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pressroom-cms/models"
	"pressroom-cms/storage"
)

var (
	// ErrMalformedAssetURL marks a file.url whose path does not decompose into
	// exactly <directory>/<filename>. Fatal: silently dropping the reference
	// would publish content with a broken link.
	ErrMalformedAssetURL = errors.New("asset url does not decompose into directory and filename")
	// ErrForeignBucket marks a file.url pointing at a bucket this backend does
	// not own and therefore cannot safely migrate.
	ErrForeignBucket = errors.New("asset url points at an unknown bucket")
)

type assetSource struct {
	Bucket    string
	Directory string
	FileName  string
}

// AssetRewriter remaps every embedded asset reference of a content tree to a
// destination bucket/directory and emits the copy plan that makes the new
// URLs valid. It is purely a string transform; all I/O happens in the
// storage gateway.
type AssetRewriter struct {
	draftBucket     string
	publishedBucket string
	domain          string
}

func NewAssetRewriter(draftBucket, publishedBucket, domain string) *AssetRewriter {
	return &AssetRewriter{
		draftBucket:     draftBucket,
		publishedBucket: publishedBucket,
		domain:          domain,
	}
}

// PublicURL builds the public address of an object.
func (r *AssetRewriter) PublicURL(bucket, directory, filename string) string {
	return fmt.Sprintf("https://%s.%s/%s/%s", bucket, r.domain, directory, filename)
}

// Rewrite returns a deep-copied content tree whose image/attaches URLs target
// dest, plus one copy instruction per distinct source object. Blocks without
// asset references pass through unchanged.
func (r *AssetRewriter) Rewrite(blocks models.Blocks, dest storage.Location) (models.Blocks, []storage.CopyInstruction, error) {
	out := make(models.Blocks, 0, len(blocks))
	var plan []storage.CopyInstruction
	seen := make(map[assetSource]bool)

	for _, block := range blocks {
		if !block.HasAsset() {
			out = append(out, block.Clone())
			continue
		}

		rawURL, err := block.AssetURL()
		if err != nil {
			return nil, nil, err
		}

		src, err := r.parseAssetURL(rawURL)
		if err != nil {
			return nil, nil, err
		}

		rewritten, err := block.WithAssetURL(r.PublicURL(dest.Bucket, dest.Directory, src.FileName))
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rewritten)

		if seen[src] {
			continue
		}
		seen[src] = true
		plan = append(plan, storage.CopyInstruction{
			SourceBucket:         src.Bucket,
			SourceDirectory:      src.Directory,
			FileName:             src.FileName,
			DestinationDirectory: dest.Directory,
		})
	}

	return out, plan, nil
}

// ValidateOwnership checks the invariant that every asset reference of a
// content tree sits inside its own location. Violations abort the save.
func (r *AssetRewriter) ValidateOwnership(blocks models.Blocks, own storage.Location) error {
	for _, block := range blocks {
		if !block.HasAsset() {
			continue
		}

		rawURL, err := block.AssetURL()
		if err != nil {
			return err
		}

		src, err := r.parseAssetURL(rawURL)
		if err != nil {
			return err
		}

		if src.Bucket != own.Bucket || src.Directory != own.Directory {
			return fmt.Errorf("%w: %q references %s/%s instead of %s/%s",
				ErrForeignBucket, rawURL, src.Bucket, src.Directory, own.Bucket, own.Directory)
		}
	}
	return nil
}

func (r *AssetRewriter) parseAssetURL(raw string) (assetSource, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return assetSource{}, fmt.Errorf("%w: %q", ErrMalformedAssetURL, raw)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return assetSource{}, fmt.Errorf("%w: %q", ErrMalformedAssetURL, raw)
	}

	bucket := strings.SplitN(parsed.Host, ".", 2)[0]
	if bucket != r.draftBucket && bucket != r.publishedBucket {
		return assetSource{}, fmt.Errorf("%w: %q", ErrForeignBucket, raw)
	}

	return assetSource{Bucket: bucket, Directory: segments[0], FileName: segments[1]}, nil
}
