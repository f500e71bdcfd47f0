package domain

// Prediction is the outcome of PredictVersion.
type Prediction struct {
	Version  *Version
	Latest   *Version
	Revision RevisionType
	Breaking bool
	Initial  bool
}

// PredictVersion computes the next version for a merge from branch.
// With no existing versions it returns DefaultVersion unbumped, without
// looking at the branch name. It performs no I/O.
func PredictVersion(existing []*Version, branch string, vocab Vocabulary) (*Version, error) {
	p, err := Predict(existing, branch, vocab, nil)
	if err != nil {
		return nil, err
	}
	return p.Version, nil
}

// Predict is PredictVersion with the classification details kept. initial
// replaces DefaultVersion when non-nil.
func Predict(existing []*Version, branch string, vocab Vocabulary, initial *Version) (*Prediction, error) {
	if len(existing) == 0 {
		if initial == nil {
			initial = MustParseVersion(DefaultVersion)
		}
		return &Prediction{Version: initial, Initial: true}, nil
	}
	latest := LatestVersion(existing)
	kind, breaking, err := vocab.ClassifyBranch(branch)
	if err != nil {
		return nil, err
	}
	p := &Prediction{Latest: latest, Revision: kind, Breaking: breaking}
	switch {
	case breaking || kind == RevisionMajor:
		p.Version = latest.BumpMajor()
	case kind == RevisionMinor:
		p.Version = latest.BumpMinor()
	default:
		p.Version = latest.BumpPatch()
	}
	return p, nil
}
