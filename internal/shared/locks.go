package shared

import "fmt"

// EditorStateKey builds the redis key holding one screen state.
func EditorStateKey(sessionID, productID string) string {
	return fmt.Sprintf("editor:%s:%s", sessionID, productID)
}

// EditorSubmitLockKey builds the redis key guarding in-flight submissions.
func EditorSubmitLockKey(sessionID, productID string) string {
	return EditorStateKey(sessionID, productID) + ":submit"
}

// EditorPreviewKey builds the redis key of a staged image preview.
func EditorPreviewKey(sessionID, handle string) string {
	return fmt.Sprintf("editor:%s:preview:%s", sessionID, handle)
}
