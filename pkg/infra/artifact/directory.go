package artifact

import (
	"context"
	"io"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/domain/interfaces"
	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

// AllowedExtensions are the file extensions considered release artifacts
var AllowedExtensions = []string{".json", ".tl", ".dat"}

// ContentType infers an upload content type from a file extension
func ContentType(ext string) string {
	switch ext {
	case ".json":
		return "application/json"
	case ".dat":
		return "application/octet-stream"
	default:
		return "text/plain; charset=utf-8"
	}
}

type directory struct {
	fs billy.Filesystem
}

// NewDirectory returns an ArtifactSource over the top level of fs
func NewDirectory(fs billy.Filesystem) interfaces.ArtifactSource {
	return &directory{fs: fs}
}

// NewOSDirectory returns an ArtifactSource over a directory on disk
func NewOSDirectory(path string) interfaces.ArtifactSource {
	return NewDirectory(osfs.New(path))
}

// List returns regular files with an allowed extension, sorted by name
func (d *directory) List(ctx context.Context) ([]*model.LocalArtifact, error) {
	entries, err := d.fs.ReadDir(".")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read artifact directory", goerr.V("root", d.fs.Root()))
	}

	var artifacts []*model.LocalArtifact
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !isAllowed(ext) {
			continue
		}

		artifacts = append(artifacts, &model.LocalArtifact{
			FileName:    entry.Name(),
			Extension:   ext,
			ContentType: ContentType(ext),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].FileName < artifacts[j].FileName
	})

	ctxlog.From(ctx).Debug("Listed artifacts",
		"root", d.fs.Root(),
		"entries", len(entries),
		"artifacts", len(artifacts),
	)

	return artifacts, nil
}

// Load reads the artifact's content from the filesystem
func (d *directory) Load(ctx context.Context, artifact *model.LocalArtifact) error {
	f, err := d.fs.Open(artifact.FileName)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact", goerr.V("file", artifact.FileName))
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return goerr.Wrap(err, "failed to read artifact", goerr.V("file", artifact.FileName))
	}

	artifact.Content = content
	return nil
}

func isAllowed(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
