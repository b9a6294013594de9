package auth

import (
	"sync"

	"golang.org/x/oauth2"
)

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes callback whenever the source hands out an
// access token it has not seen before.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if s.callback != nil {
			s.callback(token)
		}
	}
	return token, nil
}
