package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

type accountRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	UserID   string `json:"userId" validate:"omitempty,uuid"`
}

type accountUpdateRequest struct {
	Username string `json:"username" validate:"required"`
}

// ListAccountsHandler 全部后台账号
func (h *Handler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": accounts})
}

// RegisterAccountHandler 注册后台账号
func (h *Handler) RegisterAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.Register(r.Context(), req.Username, req.Password, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// AccountLoginHandler 后台账号登录
func (h *Handler) AccountLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// UpdateAccountHandler 修改账号用户名
func (h *Handler) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req accountUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.accounts.UpdateUsername(r.Context(), mux.Vars(r)["id"], req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ToggleAccountStatusHandler 启用或停用账号
func (h *Handler) ToggleAccountStatusHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.ToggleStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ChangeAccountRoleHandler 切换账号角色
func (h *Handler) ChangeAccountRoleHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.ChangeRole(r.Context(), mux.Vars(r)["id"], h.cfg.AdminRole)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteAccountHandler 删除账号
func (h *Handler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: account.ID})
}
