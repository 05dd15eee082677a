package http

import (
	"github.com/odyssey-erp/storefront-admin/internal/shared"
)

// sessionNotifier turns screen notifications into flash messages shown on
// the next rendered page.
type sessionNotifier struct {
	sess *shared.Session
}

func (n sessionNotifier) Success(message string) {
	if n.sess != nil {
		n.sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: message})
	}
}

func (n sessionNotifier) Error(message string) {
	if n.sess != nil {
		n.sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: message})
	}
}

// redirectNavigator remembers the route requested by the screen; the handler
// answers with a 303 to it.
type redirectNavigator struct {
	path string
}

func (n *redirectNavigator) Navigate(path string) {
	n.path = path
}
