package handler

import (
	"net/http"

	"github.com/VoltaiLTD/voltdesigns/model"
	"github.com/VoltaiLTD/voltdesigns/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie identifies the browser's quote draft. The draft itself never
// goes into the cookie, only an opaque key into the draft store.
const SessionCookie = "quote_session"

const sessionMaxAge = 180 * 24 * 3600 // 180 days

type DraftHandler struct {
	drafts *service.DraftStore
}

func NewDraftHandler(drafts *service.DraftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// sessionKey returns the caller's draft key, minting a new session cookie
// when none is present yet.
func (h *DraftHandler) sessionKey(c *gin.Context) string {
	if key, err := c.Cookie(SessionCookie); err == nil && key != "" {
		return key
	}
	key := uuid.New().String()
	c.SetCookie(SessionCookie, key, sessionMaxAge, "/", "", false, true)
	return key
}

// Get loads the session's draft. Query-supplied initial selections
// (?materials=slug,slug and ?images=path,path) are merged into the stored
// selections as an ordered, deduplicated union, matching how a shared link
// pre-selects materials without clobbering what the visitor already picked.
func (h *DraftHandler) Get(c *gin.Context) {
	key := h.sessionKey(c)

	draft := h.drafts.Load(key)
	if draft == nil {
		draft = &model.QuoteDraft{}
	}
	draft.Normalize()

	materials := model.SplitList(c.Query("materials"))
	images := model.SplitList(c.Query("images"))
	if len(materials) > 0 || len(images) > 0 {
		draft.MergeSelections(materials, images)
		h.drafts.Save(key, draft)
	}

	c.JSON(http.StatusOK, draft)
}

// Put replaces the session's draft wholesale. Last write wins.
func (h *DraftHandler) Put(c *gin.Context) {
	var draft model.QuoteDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draft payload"})
		return
	}
	draft.Normalize()

	key := h.sessionKey(c)
	h.drafts.Save(key, &draft)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete clears the session's draft.
func (h *DraftHandler) Delete(c *gin.Context) {
	key := h.sessionKey(c)
	h.drafts.Clear(key)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
