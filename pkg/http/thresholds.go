package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/coldchain-monitor/pkg/models"

	z "github.com/Oudwins/zog"
)

type ProfileRequest struct {
	Name string `json:"name"`
	BoundsRequest
	MinExcursionMinutes int  `json:"min_excursion_minutes"`
	MaxDurationMinutes  int  `json:"max_duration_minutes"`
	RecoveryMinutes     *int `json:"recovery_minutes"`
}

var profileRequestSchema = z.Struct(z.Shape{
	"Name":                z.String().Min(1).Required(),
	"MinExcursionMinutes": z.Int().GTE(0),
	"MaxDurationMinutes":  z.Int().GTE(0),
})

func (req *ProfileRequest) toProfile(profileID string) *models.ThresholdProfile {
	return &models.ThresholdProfile{
		ProfileID:           profileID,
		Name:                req.Name,
		Bounds:              req.toBounds(),
		MinExcursionMinutes: req.MinExcursionMinutes,
		MaxDurationMinutes:  req.MaxDurationMinutes,
		RecoveryMinutes:     req.RecoveryMinutes,
	}
}

func bindProfile(c *gin.Context) (*ProfileRequest, bool) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if errs := profileRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return nil, false
	}
	return &req, true
}

func (rs *RestfulServer) CreateProfile(c *gin.Context) {
	req, ok := bindProfile(c)
	if !ok {
		return
	}

	profile := req.toProfile("")
	if err := rs.Iot.Threshold.UpsertProfile(profile); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// UpdateProfile is refused with 409 once any reading was classified against the profile.
func (rs *RestfulServer) UpdateProfile(c *gin.Context) {
	req, ok := bindProfile(c)
	if !ok {
		return
	}

	profile := req.toProfile(c.Param("profile_id"))
	if err := rs.Iot.Threshold.UpsertProfile(profile); err != nil {
		respondError(c, err)
		return
	}
	rs.refresh(c.Request.Context())

	c.JSON(http.StatusOK, profile)
}

func (rs *RestfulServer) GetProfile(c *gin.Context) {
	profile, err := rs.Iot.Threshold.GetProfile(c.Param("profile_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type AssignmentRequest struct {
	ProfileID      string     `json:"profile_id"`
	EffectiveStart time.Time  `json:"effective_start"`
	EffectiveEnd   *time.Time `json:"effective_end"`
	IsDefault      bool       `json:"is_default"`
}

var assignmentRequestSchema = z.Struct(z.Shape{
	"ProfileID":      z.String().Min(1).Required(),
	"EffectiveStart": z.Time().Required(),
})

func (rs *RestfulServer) AssignProfile(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := assignmentRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	assignment := &models.DeviceThresholdAssignment{
		DeviceID:       deviceID,
		ProfileID:      req.ProfileID,
		EffectiveStart: req.EffectiveStart,
		EffectiveEnd:   req.EffectiveEnd,
		IsDefault:      req.IsDefault,
	}
	if err := rs.Iot.Threshold.AssignProfile(assignment); err != nil {
		respondError(c, err)
		return
	}
	rs.refresh(c.Request.Context())

	c.JSON(http.StatusCreated, assignment)
}

func (rs *RestfulServer) ListAssignments(c *gin.Context) {
	assignments, err := rs.Iot.Threshold.ListAssignments(c.Param("device_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

type EndAssignmentRequest struct {
	EffectiveEnd time.Time `json:"effective_end"`
}

var endAssignmentRequestSchema = z.Struct(z.Shape{
	"EffectiveEnd": z.Time().Required(),
})

func (rs *RestfulServer) EndAssignment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assignment id must be a positive integer"})
		return
	}

	var req EndAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := endAssignmentRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	if err := rs.Iot.Threshold.EndAssignment(uint(id), req.EffectiveEnd); err != nil {
		respondError(c, err)
		return
	}
	rs.refresh(c.Request.Context())

	c.Status(http.StatusOK)
}
