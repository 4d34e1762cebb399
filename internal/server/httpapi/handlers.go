package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/uploads"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/gorilla/mux"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("DecentraNews API is running"))
}

// GET /nonce — issues a fresh single-use challenge bound to the session.
func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	nonce, err := s.sessions.IssueNonce(sess)
	if err != nil {
		s.logger.Error(r.Context(), "error issuing nonce", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(nonce))
}

type verifyRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// POST /verify — consumes the pending nonce and, on a valid signature,
// promotes the session to authenticated. Any failure clears all session
// auth state.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Expected prepareMessage object as body.")
		return
	}

	// Taken before verification: a failed attempt burns the nonce too.
	nonce, _ := s.sessions.TakeNonce(sess)

	address, err := s.verifier.Verify(ctx, req.Message, req.Signature, nonce)
	if err != nil {
		s.sessions.Reset(sess)
		s.logger.Warn(ctx, "verification failed", "error", err.Error())
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}

	s.sessions.Establish(sess, address)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": map[string]string{"address": address},
	})
}

// POST /signout — destroys the server-side session.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.sessions.Destroy(sess.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /me — reports the authenticated identity with its synced role.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	address, ok := s.sessions.Authenticated(sess)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "You have to first sign_in")
		return
	}

	user, err := s.users.Resolve(ctx, address)
	if err != nil {
		s.logger.Error(ctx, "role sync failed", "address", address, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "User sync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": user.Address,
		"isAdmin": user.Role.AdminEquivalent(),
		"role":    user.Role,
	})
}

// viewerRole resolves the role the listing should be filtered for.
// Unauthenticated callers read as plain users; resolution failures degrade
// to the public view rather than failing the read path.
func (s *Server) viewerRole(r *http.Request) users.Role {
	sess := sessionFromContext(r.Context())
	address, ok := s.sessions.Authenticated(sess)
	if !ok {
		return users.RoleUser
	}

	user, err := s.users.Resolve(r.Context(), address)
	if err != nil {
		s.logger.Warn(r.Context(), "viewer role resolution failed", "address", address, "error", err.Error())
		return users.RoleUser
	}
	return user.Role
}

// GET /articles
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := s.articles.List(r.Context(), s.viewerRole(r))
	if err != nil {
		s.logger.Error(r.Context(), "error listing articles", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to fetch articles")
		return
	}
	if list == nil {
		list = []*articles.Article{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /articles/{idOrSlug}
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	idOrSlug := mux.Vars(r)["idOrSlug"]

	article, err := s.articles.Get(r.Context(), idOrSlug)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.logger.Error(r.Context(), "error fetching article", "id", idOrSlug, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// GET /nav-pages
func (s *Server) handleNavPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.articles.NavPages(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "error listing nav pages", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to fetch nav pages")
		return
	}
	if pages == nil {
		pages = []*articles.NavPage{}
	}
	writeJSON(w, http.StatusOK, pages)
}

type publishResponse struct {
	Article        *articles.Article `json:"article"`
	AnchorAttached bool              `json:"anchorAttached"`
	AnchorError    string            `json:"anchorError,omitempty"`
}

// POST /articles — creates an article, attaching the NFT anchor pair in a
// best-effort second step when supplied.
func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	var draft articles.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if draft.Title == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Expected a title.")
		return
	}

	sessionAddress, _ := s.sessions.Authenticated(sess)

	author, err := s.articles.EffectiveAuthor(ctx, sessionAddress)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "You have to first sign_in")
		return
	}

	result, err := s.articles.PublishAndAnchor(ctx, draft, author)
	if err != nil {
		s.logger.Error(ctx, "error creating article", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to create article")
		return
	}

	resp := publishResponse{Article: result.Article, AnchorAttached: result.AnchorAttached}
	if result.AnchorErr != nil {
		resp.AnchorError = "Failed to attach NFT anchor"
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireAdminEquivalent authorizes mutating article operations.
func (s *Server) requireAdminEquivalent(w http.ResponseWriter, r *http.Request) bool {
	sess := sessionFromContext(r.Context())

	address, ok := s.sessions.Authenticated(sess)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "You have to first sign_in")
		return false
	}

	user, err := s.users.Resolve(r.Context(), address)
	if err != nil {
		s.logger.Error(r.Context(), "role sync failed", "address", address, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "User sync failed")
		return false
	}
	if !user.Role.AdminEquivalent() {
		writeMessage(w, http.StatusForbidden, "Insufficient role")
		return false
	}

	return true
}

// PUT /articles/{id}
func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdminEquivalent(w, r) {
		return
	}

	id := mux.Vars(r)["id"]

	var draft articles.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	article, err := s.articles.Update(r.Context(), id, draft)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.logger.Error(r.Context(), "error updating article", "id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to update article")
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// DELETE /articles/{id}
func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdminEquivalent(w, r) {
		return
	}

	id := mux.Vars(r)["id"]

	if err := s.articles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.logger.Error(r.Context(), "error deleting article", "id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to delete article")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type uploadResponse struct {
	Success int            `json:"success"`
	File    map[string]any `json:"file,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// POST /upload — multipart image upload stored in the object bucket.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Extra headroom for multipart framing; the service enforces the exact
	// cap on the file bytes themselves.
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxFileSize+1<<20)

	file, _, err := r.FormFile("image")
	if err != nil {
		status, msg := http.StatusBadRequest, "no file uploaded"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = shared.ErrorFileTooLarge.Error()
		}
		writeJSON(w, status, uploadResponse{Success: 0, Error: msg})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Success: 0, Error: "error reading file"})
		return
	}

	url, err := s.uploads.Store(ctx, data)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrorFileTooLarge), errors.Is(err, shared.ErrorNotAnImage), errors.Is(err, shared.ErrorMissingFile):
			writeJSON(w, http.StatusBadRequest, uploadResponse{Success: 0, Error: err.Error()})
		default:
			s.logger.Error(ctx, "error storing upload", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, uploadResponse{Success: 0, Error: "Failed to store file"})
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: 1,
		File:    map[string]any{"url": url},
	})
}
