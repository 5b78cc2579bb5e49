package permissions

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
)

const editorSessionKey = "role_editor"

// editorState is the checkbox state of one permission-editing session,
// serialized into the session store between requests. LoadToken is minted
// on every editor load; a toggle or submit carrying a different token came
// from a stale tab and is rejected.
type editorState struct {
	UserID        int64   `json:"user_id"`
	LoadToken     string  `json:"load_token"`
	RoleIDs       []int64 `json:"role_ids"`
	PermissionIDs []int64 `json:"permission_ids"`
}

func newEditorState(userID int64, roleIDs, permissionIDs []int64) editorState {
	return editorState{
		UserID:        userID,
		LoadToken:     uuid.NewString(),
		RoleIDs:       roleIDs,
		PermissionIDs: permissionIDs,
	}
}

// selection rebuilds the working Selection over the given graph.
func (st editorState) selection(graph *rbac.Graph) *rbac.Selection {
	sel := rbac.NewSelection(graph)
	sel.Reset(st.RoleIDs, st.PermissionIDs)
	return sel
}

// capture folds the selection back into the state for persistence.
func (st *editorState) capture(sel *rbac.Selection) {
	st.RoleIDs = sel.RoleIDs()
	st.PermissionIDs = sel.PermissionIDs()
}

// matches reports whether a submitted token and user id belong to this
// editing session.
func (st editorState) matches(userID int64, token string) bool {
	return st.UserID == userID && token != "" && st.LoadToken == token
}

// resolveEditorState loads the saved state and validates the submitted load
// token against it. A missing state or token mismatch is a stale editor.
func resolveEditorState(sess *shared.Session, userID int64, token string) (editorState, error) {
	st, found := loadEditorState(sess, userID)
	if !found || !st.matches(userID, token) {
		return editorState{}, shared.ErrStaleEditor
	}
	return st, nil
}

func saveEditorState(sess *shared.Session, st editorState) {
	if sess == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	sess.Set(editorSessionKey+":"+strconv.FormatInt(st.UserID, 10), string(data))
}

func loadEditorState(sess *shared.Session, userID int64) (editorState, bool) {
	if sess == nil {
		return editorState{}, false
	}
	raw := sess.Get(editorSessionKey + ":" + strconv.FormatInt(userID, 10))
	if raw == "" {
		return editorState{}, false
	}
	var st editorState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return editorState{}, false
	}
	return st, true
}

func clearEditorState(sess *shared.Session, userID int64) {
	if sess == nil {
		return
	}
	sess.Delete(editorSessionKey + ":" + strconv.FormatInt(userID, 10))
}
