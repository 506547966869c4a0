package discover

// SkippedPath records a path the scan could not read.
type SkippedPath struct {
	Path string
	Err  error
}

// Report collects the paths a scan skipped. A zero Report means nothing was skipped.
type Report struct {
	Skipped []SkippedPath
}

func (r *Report) skip(path string, err error) {
	if r == nil {
		return
	}
	r.Skipped = append(r.Skipped, SkippedPath{Path: path, Err: err})
}

// Merge appends the skipped paths of other to r.
func (r *Report) Merge(other Report) {
	r.Skipped = append(r.Skipped, other.Skipped...)
}
