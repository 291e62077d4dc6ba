package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/coldchain-monitor/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type ActionRequest struct {
	Type        string `json:"type" zog:"type"`
	Description string `json:"description" zog:"description"`
	CreatedBy   string `json:"created_by" zog:"created_by"`
}

var actionRequestSchema = z.Struct(z.Shape{
	"Type":        z.String().Required(),
	"Description": z.String(),
	"CreatedBy":   z.String().Min(1).Required(),
})

func (rs *RestfulServer) GetActions(c *gin.Context) {
	actions, err := rs.Iot.Action.GetDeviceActions(c.Param("device_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// PostAction logs an operator action. While the device is in an excursion the action
// is tied to it, so the engine does not raise a second one.
func (rs *RestfulServer) PostAction(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req ActionRequest
	if err := actionRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if _, err := rs.Iot.Device.GetDevice(deviceID); err != nil {
		respondError(c, err)
		return
	}

	input := &models.CorrectiveAction{
		Type:        models.ActionType(req.Type),
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	}
	if rs.Engine != nil {
		if state, ok := rs.Engine.Tracker().Get(deviceID); ok && state.ExcursionSince != nil {
			since := *state.ExcursionSince
			input.ExcursionSince = &since
		}
	}

	action, err := rs.Iot.Action.Raise(deviceID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	if rs.Iot.Publisher != nil {
		rs.Iot.Publisher.PublishAction(action)
	}

	c.JSON(http.StatusCreated, action)
}

func (rs *RestfulServer) GetAction(c *gin.Context) {
	action, err := rs.Iot.Action.GetAction(c.Param("action_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

type TransitionRequest struct {
	Actor  string `json:"actor" zog:"actor"`
	Notes  string `json:"notes" zog:"notes"`
	Reason string `json:"reason" zog:"reason"`
}

var transitionRequestSchema = z.Struct(z.Shape{
	"Actor": z.String().Min(1).Required(),
	"Notes": z.String(),
})

var retractRequestSchema = z.Struct(z.Shape{
	"Actor":  z.String().Min(1).Required(),
	"Reason": z.String().Min(1).Required(),
})

// transition parses the actor payload with schema and applies apply to the action.
func (rs *RestfulServer) transition(c *gin.Context, schema *z.StructSchema,
	apply func(actionID string, req *TransitionRequest) (*models.CorrectiveAction, error)) {
	var req TransitionRequest
	if err := schema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	action, err := apply(c.Param("action_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	if rs.Iot.Publisher != nil {
		rs.Iot.Publisher.PublishAction(action)
	}
	c.JSON(http.StatusOK, action)
}

func (rs *RestfulServer) StartAction(c *gin.Context) {
	rs.transition(c, transitionRequestSchema, func(id string, req *TransitionRequest) (*models.CorrectiveAction, error) {
		return rs.Iot.Action.Start(id, req.Actor)
	})
}

func (rs *RestfulServer) CompleteAction(c *gin.Context) {
	rs.transition(c, transitionRequestSchema, func(id string, req *TransitionRequest) (*models.CorrectiveAction, error) {
		return rs.Iot.Action.Complete(id, req.Actor, req.Notes)
	})
}

func (rs *RestfulServer) CancelAction(c *gin.Context) {
	rs.transition(c, transitionRequestSchema, func(id string, req *TransitionRequest) (*models.CorrectiveAction, error) {
		return rs.Iot.Action.Cancel(id, req.Actor)
	})
}

func (rs *RestfulServer) RetractAction(c *gin.Context) {
	rs.transition(c, retractRequestSchema, func(id string, req *TransitionRequest) (*models.CorrectiveAction, error) {
		return rs.Iot.Action.Retract(id, req.Actor, req.Reason)
	})
}

type EditRequest struct {
	Type        string `json:"type" zog:"type"`
	Description string `json:"description" zog:"description"`
}

var editRequestSchema = z.Struct(z.Shape{
	"Type":        z.String().Required(),
	"Description": z.String(),
})

func (rs *RestfulServer) EditAction(c *gin.Context) {
	var req EditRequest
	if err := editRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	action, err := rs.Iot.Action.Edit(c.Param("action_id"), models.ActionType(req.Type), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	if rs.Iot.Publisher != nil {
		rs.Iot.Publisher.PublishAction(action)
	}
	c.JSON(http.StatusOK, action)
}
