package catalog

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrMediaInaccessible marks a link whose chat or message cannot be resolved.
	ErrMediaInaccessible = errors.New("catalog: linked message is not accessible")
	// ErrNoMedia marks a resolvable message that carries no media.
	ErrNoMedia = errors.New("catalog: linked message has no media")
)

// Platform is the slice of the messaging platform needed for media import.
type Platform interface {
	// ResolveLink parses a message link into its chat and message ids.
	ResolveLink(link string) (chatID, messageID string, err error)
	// ForwardMessage copies the message into the working chat and returns
	// the copy's id plus the media reference read off it.
	ForwardMessage(chatID, messageID string) (copyID, mediaRef string, err error)
	// DeleteMessage removes a message from the working chat.
	DeleteMessage(messageID string) error
}

// ImportMediaFromLink resolves the linked message, forwards it to the
// working area to read off the media reference, then discards the copy.
// All failure modes are typed and non-fatal: the caller may proceed
// without media.
func (e *Engine) ImportMediaFromLink(link string) (string, error) {
	if e.platform == nil {
		return "", ErrMediaInaccessible
	}

	chatID, messageID, err := e.platform.ResolveLink(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaInaccessible, err)
	}

	copyID, mediaRef, err := e.platform.ForwardMessage(chatID, messageID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaInaccessible, err)
	}

	// Discard the working copy regardless of the media outcome.
	if copyID != "" {
		if err := e.platform.DeleteMessage(copyID); err != nil {
			log.Printf("catalog: failed to discard forwarded copy %s: %v", copyID, err)
		}
	}

	if mediaRef == "" {
		return "", ErrNoMedia
	}
	return mediaRef, nil
}
