// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

// agentService is the concrete implementation of [AgentService].
type agentService struct {
	agentRepository store.AgentRepository

	validator validators.Validator
	uuid      *utils.UUIDGenerator

	// maxPerUser caps how many non-retired agents one user may own.
	maxPerUser int64

	logger *logger.Logger
}

// NewAgentService constructs an [AgentService] enforcing the per-user agent
// ceiling from cfg.
func NewAgentService(agentRepository store.AgentRepository, cfg config.Agents, logger *logger.Logger) AgentService {
	return &agentService{
		agentRepository: agentRepository,
		validator:       validators.NewRequestValidator(),
		uuid:            utils.NewUUIDGenerator(),
		maxPerUser:      int64(cfg.MaxPerUser),
		logger:          logger,
	}
}

// CreateAgent implements [AgentService].
func (s *agentService) CreateAgent(ctx context.Context, ownerID int64, req models.CreateAgentRequest) (models.Agent, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Int64("owner_id", ownerID).Msg("invalid agent data")
		return models.Agent{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	owned, err := s.agentRepository.CountAgentsByOwner(ctx, ownerID)
	if err != nil {
		log.Err(err).Int64("owner_id", ownerID).Msg("agent count lookup failed")
		return models.Agent{}, fmt.Errorf("agent count lookup failed: %w", err)
	}
	if owned >= s.maxPerUser {
		log.Warn().Int64("owner_id", ownerID).Int64("owned", owned).Msg("agent limit reached")
		return models.Agent{}, ErrAgentLimitReached
	}

	now := time.Now()
	agent, err := s.agentRepository.CreateAgent(ctx, models.Agent{
		AgentID:     s.uuid.Generate(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Status:      models.AgentIdle,
		Config:      req.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Err(err).Int64("owner_id", ownerID).Str("name", req.Name).Msg("agent creation ended with error")
		return models.Agent{}, fmt.Errorf("agent creation ended with error: %w", err)
	}

	log.Info().Str("agent_id", agent.AgentID).Int64("owner_id", ownerID).Msg("agent created")
	return agent, nil
}

// GetAgent implements [AgentService].
func (s *agentService) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	agent, err := s.agentRepository.GetAgent(ctx, agentID)
	if err != nil {
		return models.Agent{}, fmt.Errorf("agent lookup failed: %w", err)
	}
	return agent, nil
}

// ListAgents implements [AgentService].
func (s *agentService) ListAgents(ctx context.Context, ownerID int64) ([]models.Agent, error) {
	agents, err := s.agentRepository.ListAgentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("agent listing failed: %w", err)
	}
	return agents, nil
}

// UpdateAgent implements [AgentService]. A status change inside the update
// is validated against the lifecycle graph before the row is touched.
func (s *agentService) UpdateAgent(ctx context.Context, ownerID int64, agentID string, req models.UpdateAgentRequest) (models.Agent, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("invalid agent update")
		return models.Agent{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	agent, err := s.ownedAgent(ctx, ownerID, agentID)
	if err != nil {
		return models.Agent{}, err
	}

	if req.Status != nil && *req.Status != agent.Status && !agent.CanTransitionTo(*req.Status) {
		log.Warn().
			Str("agent_id", agentID).
			Str("from", string(agent.Status)).
			Str("to", string(*req.Status)).
			Msg("illegal status transition")
		return models.Agent{}, ErrInvalidStatusTransition
	}

	updated, err := s.agentRepository.UpdateAgent(ctx, agentID, req)
	if err != nil {
		log.Err(err).Str("agent_id", agentID).Msg("agent update ended with error")
		return models.Agent{}, fmt.Errorf("agent update ended with error: %w", err)
	}

	return updated, nil
}

// TransitionAgent implements [AgentService]. The move is executed as a
// compare-and-set against the status observed here, so two concurrent
// transitions cannot both win.
func (s *agentService) TransitionAgent(ctx context.Context, ownerID int64, agentID string, target models.AgentStatus) (models.Agent, error) {
	log := logger.FromContext(ctx)

	if !target.Valid() {
		return models.Agent{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrInvalidAgentStatus)
	}

	agent, err := s.ownedAgent(ctx, ownerID, agentID)
	if err != nil {
		return models.Agent{}, err
	}

	if agent.Status == target {
		return agent, nil
	}
	if !agent.CanTransitionTo(target) {
		log.Warn().
			Str("agent_id", agentID).
			Str("from", string(agent.Status)).
			Str("to", string(target)).
			Msg("illegal status transition")
		return models.Agent{}, ErrInvalidStatusTransition
	}

	if err := s.agentRepository.UpdateAgentStatus(ctx, agentID, agent.Status, target); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return models.Agent{}, ErrInvalidStatusTransition
		}
		log.Err(err).Str("agent_id", agentID).Msg("status transition ended with error")
		return models.Agent{}, fmt.Errorf("status transition ended with error: %w", err)
	}

	agent.Status = target
	return agent, nil
}

// BeginWork implements [AgentService]. Claiming is a CAS from idle to busy;
// losing the race to another dispatcher surfaces as [ErrAgentUnavailable].
func (s *agentService) BeginWork(ctx context.Context, agentID string) error {
	err := s.agentRepository.UpdateAgentStatus(ctx, agentID, models.AgentIdle, models.AgentBusy)
	if err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return ErrAgentUnavailable
		}
		return fmt.Errorf("agent claim failed: %w", err)
	}
	return nil
}

// FinishWork implements [AgentService]. The agent is released back to idle
// and the task outcome folded into its metrics. The release is best effort
// when the agent was moved out of busy by somebody else meanwhile.
func (s *agentService) FinishWork(ctx context.Context, agentID string, succeeded bool, responseTime float64) error {
	log := logger.FromContext(ctx)

	if err := s.agentRepository.RecordAgentResult(ctx, agentID, succeeded, responseTime); err != nil {
		log.Warn().Err(err).Str("agent_id", agentID).Msg("agent metrics update failed")
	}

	err := s.agentRepository.UpdateAgentStatus(ctx, agentID, models.AgentBusy, models.AgentIdle)
	if err != nil && !errors.Is(err, store.ErrStatusConflict) {
		return fmt.Errorf("agent release failed: %w", err)
	}
	return nil
}

// ownedAgent loads the agent and verifies the caller owns it.
func (s *agentService) ownedAgent(ctx context.Context, ownerID int64, agentID string) (models.Agent, error) {
	agent, err := s.agentRepository.GetAgent(ctx, agentID)
	if err != nil {
		return models.Agent{}, fmt.Errorf("agent lookup failed: %w", err)
	}
	if agent.OwnerID != ownerID {
		return models.Agent{}, ErrNotAgentOwner
	}
	return agent, nil
}
