// Package jenkinsjob triggers the Jenkins jobs attached to a Samson stage
// once a deploy finishes and records the outcome of every attempt.
package jenkinsjob

import (
	"slices"
	"strings"
)

// Deploy is the finished deploy that triggers Jenkins jobs
type Deploy struct {
	ID        int64  `json:"id"`
	Project   string `json:"project"`
	Stage     string `json:"stage"`
	Reference string `json:"reference"`
	Commit    string `json:"commit"`
	Tag       string `json:"tag,omitempty"`
	URL       string `json:"url"`

	UserName        string   `json:"user_name"`
	UserEmail       string   `json:"user_email"`
	BuddyEmail      string   `json:"buddy_email,omitempty"`
	CommitterEmails []string `json:"committer_emails,omitempty"`

	// JobNames are the Jenkins jobs configured on the stage. Jobs carries
	// the same list in the comma separated form stored on stages.
	JobNames        []string `json:"job_names,omitempty"`
	Jobs            string   `json:"jobs,omitempty"`
	AutoConfigure   bool     `json:"auto_configure"`
	EmailCommitters bool     `json:"email_committers"`
}

// OriginatedFrom identifies the deploy as <project>_<stage>_<reference>
func (d Deploy) OriginatedFrom() string {
	return d.Project + "_" + d.Stage + "_" + d.Reference
}

// AllJobNames returns JobNames followed by the names in Jobs, without
// duplicates
func (d Deploy) AllJobNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, name := range append(slices.Clone(d.JobNames), ParseJobNames(d.Jobs)...) {
		if name = strings.TrimSpace(name); name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// ParseJobNames splits a comma separated job list as stored on stages
func ParseJobNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Emails returns the recipients notified by the build: the deployer, the
// buddy and, when enabled, the committers. With a domain set, only addresses
// in that domain (case-insensitive) are kept.
func Emails(d Deploy, domain string) []string {
	candidates := []string{d.UserEmail, d.BuddyEmail}
	if d.EmailCommitters {
		candidates = append(candidates, d.CommitterEmails...)
	}

	seen := map[string]bool{}
	var emails []string
	for _, email := range candidates {
		email = strings.TrimSpace(email)
		if email == "" || seen[strings.ToLower(email)] {
			continue
		}
		if domain != "" && !inDomain(email, domain) {
			continue
		}
		seen[strings.ToLower(email)] = true
		emails = append(emails, email)
	}
	return emails
}

func inDomain(email, domain string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], strings.TrimPrefix(domain, "@"))
}
