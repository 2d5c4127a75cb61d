package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/api"
	"github.com/pvictorino/zapgate/internal/query"
	"github.com/pvictorino/zapgate/internal/store"
)

type handlers struct {
	chats     *api.ChatService
	messages  *api.MessageService
	contacts  *api.ContactService
	instances *api.InstanceService
	log       *zap.Logger
}

func (h *handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  http.StatusNotFound,
			"error":   "Not Found",
			"message": err.Error(),
		})
	case errors.Is(err, api.ErrNoSession):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  http.StatusBadRequest,
			"error":   "Bad Request",
			"message": err.Error(),
		})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  http.StatusInternalServerError,
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  http.StatusBadRequest,
		"error":   "Bad Request",
		"message": err.Error(),
	})
}

type findChatsRequest struct {
	RemoteJID string `json:"remoteJid"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

func (h *handlers) findChats(c *gin.Context) {
	var req findChatsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	convs, err := h.chats.FindConversations(c.Request.Context(), c.Param("instance"), req.RemoteJID, req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *handlers) findChat(c *gin.Context) {
	remoteJID := c.Query("remoteJid")
	if remoteJID == "" {
		badRequest(c, errors.New("remoteJid is required"))
		return
	}
	chat, err := h.chats.FindChat(c.Param("instance"), remoteJID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

type findContactsRequest struct {
	Where struct {
		RemoteJID string `json:"remoteJid"`
		PushName  string `json:"pushName"`
	} `json:"where"`
	query.Page
}

func (h *handlers) findContacts(c *gin.Context) {
	var req findContactsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	views, err := h.contacts.FindContacts(c.Request.Context(), query.ContactFilter{
		InstanceID: c.Param("instance"),
		RemoteJID:  req.Where.RemoteJID,
		PushName:   req.Where.PushName,
	}, req.Page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

type findMessagesRequest struct {
	Where struct {
		Key           query.KeyFilter `json:"key"`
		MessageType   string          `json:"messageType"`
		Source        string          `json:"source"`
		TimestampFrom *time.Time      `json:"timestampFrom"`
		TimestampTo   *time.Time      `json:"timestampTo"`
	} `json:"where"`
	query.Page
}

func (h *handlers) findMessages(c *gin.Context) {
	var req findMessagesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	page, err := h.messages.FindMessages(c.Request.Context(), query.MessageFilter{
		InstanceID:    c.Param("instance"),
		Key:           req.Where.Key,
		MessageType:   req.Where.MessageType,
		Source:        req.Where.Source,
		TimestampFrom: req.Where.TimestampFrom,
		TimestampTo:   req.Where.TimestampTo,
	}, req.Page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": page})
}

type findStatusMessagesRequest struct {
	Where struct {
		RemoteJID string `json:"remoteJid"`
		KeyID     string `json:"id"`
	} `json:"where"`
	query.Page
}

func (h *handlers) findStatusMessages(c *gin.Context) {
	var req findStatusMessagesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	updates, err := h.messages.FindStatusMessages(c.Param("instance"), req.Where.RemoteJID, req.Where.KeyID, req.Page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updates)
}

func (h *handlers) connectionState(c *gin.Context) {
	c.JSON(http.StatusOK, h.instances.ConnectionState(c.Param("instance")))
}

func (h *handlers) setSettings(c *gin.Context) {
	var settings store.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	settings.InstanceID = c.Param("instance")
	if err := h.instances.SetSettings(&settings); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, settings)
}

func (h *handlers) findSettings(c *gin.Context) {
	settings, err := h.instances.FindSettings(c.Param("instance"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *handlers) setProxy(c *gin.Context) {
	var proxy store.Proxy
	if err := c.ShouldBindJSON(&proxy); err != nil {
		badRequest(c, err)
		return
	}
	proxy.InstanceID = c.Param("instance")
	if err := h.instances.SetProxy(&proxy); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, proxy)
}

func (h *handlers) findProxy(c *gin.Context) {
	proxy, err := h.instances.FindProxy(c.Param("instance"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proxy)
}

func (h *handlers) setWebhook(c *gin.Context) {
	var webhook store.Webhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		badRequest(c, err)
		return
	}
	webhook.InstanceID = c.Param("instance")
	if err := h.instances.SetWebhook(&webhook); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, webhook)
}

func (h *handlers) findWebhook(c *gin.Context) {
	webhook, err := h.instances.FindWebhook(c.Param("instance"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, webhook)
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

func (h *handlers) sendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Number == "" || req.Text == "" {
		badRequest(c, errors.New("number and text are required"))
		return
	}
	msg, err := h.messages.SendText(c.Request.Context(), c.Param("instance"), req.Number, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
