package models

// CountSnapshot is a point-in-time per-provider count breakdown for one URL.
// All fields default to zero when absent from serialized data.
type CountSnapshot struct {
	FacebookTotal    int `json:"facebook_total"`
	FacebookLikes    int `json:"facebook_likes"`
	FacebookShares   int `json:"facebook_shares"`
	FacebookComments int `json:"facebook_comments"`
	Twitter          int `json:"twitter"`
	Pinterest        int `json:"pinterest"`
	LinkedIn         int `json:"linkedin"`
	StumbleUpon      int `json:"stumbleupon"`
	Email            int `json:"email"`
}

// Add accumulates another snapshot into this one.
func (s *CountSnapshot) Add(other *CountSnapshot) {
	if other == nil {
		return
	}
	s.FacebookTotal += other.FacebookTotal
	s.FacebookLikes += other.FacebookLikes
	s.FacebookShares += other.FacebookShares
	s.FacebookComments += other.FacebookComments
	s.Twitter += other.Twitter
	s.Pinterest += other.Pinterest
	s.LinkedIn += other.LinkedIn
	s.StumbleUpon += other.StumbleUpon
	s.Email += other.Email
}

// Total returns the displayed total for this snapshot. Facebook contributes
// its total count only, not the like/share/comment breakdown. Twitter counts
// are excluded unless the Twitter source is enabled in settings.
func (s *CountSnapshot) Total(includeTwitter bool) int {
	if s == nil {
		return 0
	}
	total := s.FacebookTotal + s.Pinterest + s.LinkedIn + s.StumbleUpon + s.Email
	if includeTwitter {
		total += s.Twitter
	}
	return total
}

// IsZero reports whether every provider count is zero.
func (s *CountSnapshot) IsZero() bool {
	if s == nil {
		return true
	}
	return *s == CountSnapshot{}
}
