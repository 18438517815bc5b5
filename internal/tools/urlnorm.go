package tools

import (
	"net/url"
	"strings"
)

// normalizeRawFileURL rewrites common HTML file-view URLs to their raw
// content form so fetches do not bounce through cross-host redirects.
// Handled forms: github.com blob/raw pages, GitLab-style /-/blob/
// paths, and bitbucket.org src pages. Unrecognized URLs pass through.
func normalizeRawFileURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := normalizeHost(parsed.Hostname())
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}

	var parts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if host == "github.com" {
		if len(parts) >= 5 && (parts[2] == "blob" || parts[2] == "raw") {
			org, repo, ref := parts[0], parts[1], parts[3]
			tail := strings.Join(parts[4:], "/")
			if tail != "" {
				return scheme + "://raw.githubusercontent.com/" + org + "/" + repo + "/" + ref + "/" + tail
			}
		}
		return rawURL
	}

	// GitLab and self-hosted instances use /<group>/<project>/-/blob/<ref>/...
	for idx := 0; idx+2 < len(parts); idx++ {
		if parts[idx] == "-" && (parts[idx+1] == "blob" || parts[idx+1] == "raw") {
			if idx < 2 {
				break
			}
			ref := parts[idx+2]
			tail := strings.Join(parts[idx+3:], "/")
			newPath := "/" + strings.Join(parts[:idx], "/") + "/-/raw/" + ref
			if tail != "" {
				newPath += "/" + tail
			}
			rebuilt := *parsed
			rebuilt.Path = newPath
			rebuilt.RawQuery = ""
			rebuilt.Fragment = ""
			return rebuilt.String()
		}
	}

	if host == "bitbucket.org" {
		if len(parts) >= 4 && (parts[2] == "src" || parts[2] == "raw") {
			ref := parts[3]
			tail := strings.Join(parts[4:], "/")
			newPath := "/" + parts[0] + "/" + parts[1] + "/raw/" + ref
			if tail != "" {
				newPath += "/" + tail
			}
			rebuilt := *parsed
			rebuilt.Path = newPath
			rebuilt.RawQuery = ""
			rebuilt.Fragment = ""
			return rebuilt.String()
		}
	}

	return rawURL
}
