package picker

import "fmt"

// Status lines shown around the candidate list.
const (
	NoItemsTitle   = "No items found."
	NoItemsBody    = "We couldn't find any items in the document. Please close the modal and create an item first."
	NoResultsTitle = "We can't find that."
)

// NoResultsBody explains an empty search result.
func NoResultsBody(query string) string {
	return fmt.Sprintf("We can’t find any items with “%s” in their content or name. Please try something else.", query)
}

// Counter describes the number of visible candidates.
func (c *Controller) Counter() string {
	if c.query == "" {
		return fmt.Sprintf("%d elements", len(c.visible))
	}
	return fmt.Sprintf("%d results for “%s”", len(c.visible), c.query)
}

// StateMessage returns the message replacing an empty list. ok is false when
// the list has entries.
func (c *Controller) StateMessage() (title, body string, ok bool) {
	switch {
	case len(c.index) == 0:
		return NoItemsTitle, NoItemsBody, true
	case len(c.visible) == 0:
		return NoResultsTitle, NoResultsBody(c.query), true
	default:
		return "", "", false
	}
}
