// Package emaillist discloses the emails attached to an assistant turn a
// page at a time.
package emaillist

import "mailmate/internal/model"

// PageSize is how many emails each "show more" reveals.
const PageSize = 10

// Pager exposes a growing prefix of one turn's emails. It never shrinks; a
// new turn gets a new Pager.
type Pager struct {
	emails  []model.Email
	visible int
}

func New(emails []model.Email) *Pager {
	return &Pager{emails: emails, visible: min(PageSize, len(emails))}
}

// Visible returns the disclosed prefix.
func (p *Pager) Visible() []model.Email { return p.emails[:p.visible] }

// Len is the total number of emails.
func (p *Pager) Len() int { return len(p.emails) }

// Remaining is how many emails are still hidden.
func (p *Pager) Remaining() int { return len(p.emails) - p.visible }

// CanShowMore reports whether a "show more" affordance should be offered.
func (p *Pager) CanShowMore() bool { return p.Remaining() > 0 }

// ShowMore reveals up to PageSize more emails and returns how many were added.
func (p *Pager) ShowMore() int {
	n := min(PageSize, p.Remaining())
	p.visible += n
	return n
}
