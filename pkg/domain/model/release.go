package model

// Release is a snapshot of a remote release taken once per run
type Release struct {
	ID        int64
	TagName   string
	UploadURL string // RFC 6570 template, e.g. ".../assets{?name,label}"
	Assets    []*ReleaseAsset
}

// ReleaseAsset is a single named file attached to a release
type ReleaseAsset struct {
	ID   int64
	Name string
	Size int
}

// AssetByName returns the asset with the given name from the snapshot
func (r *Release) AssetByName(name string) (*ReleaseAsset, bool) {
	for _, asset := range r.Assets {
		if asset.Name == name {
			return asset, true
		}
	}
	return nil, false
}

// NewRelease holds the parameters for creating a release
type NewRelease struct {
	TagName         string
	Name            string
	TargetCommitish string // Optional; empty means the repository default branch
}

// LocalArtifact is a file in the artifact directory that is a candidate for upload
type LocalArtifact struct {
	FileName    string
	Extension   string
	ContentType string
	Content     []byte // Loaded right before upload
}

// SyncReport summarizes a single sync run
type SyncReport struct {
	ReleaseID      int64
	TagName        string
	ReleaseCreated bool
	Uploaded       []string // Asset names uploaded, in upload order
	Replaced       []string // Subset of Uploaded whose previous asset was deleted first
}
