package github

import (
	"regexp"
	"strings"

	"github.com/fwojciec/differ"
)

var remotePattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemote extracts the owner and repository name from a GitHub remote
// URL in https, ssh or scp-like form.
func ParseRemote(url string) (differ.RemoteRepo, bool) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return differ.RemoteRepo{}, false
	}
	return differ.RemoteRepo{Owner: m[1], Name: m[2]}, true
}

func repoPath(r differ.RemoteRepo) string {
	return "/repos/" + r.Owner + "/" + r.Name
}
