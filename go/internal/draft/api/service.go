package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/machine"
	"github.com/mcdev12/draftroom/go/internal/draft/manager"
	"github.com/mcdev12/draftroom/go/internal/leagues"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrorCodeHeader carries the draft error code alongside the connect code.
const ErrorCodeHeader = "Draft-Error-Code"

// DraftsApp defines what the service needs from the draft manager
type DraftsApp interface {
	Create(ctx context.Context, leagueID string, settings models.DraftSettings) (models.Draft, error)
	Start(ctx context.Context, draftID string) (models.Draft, error)
	Reset(ctx context.Context, draftID string) (models.Draft, error)
	DraftState(ctx context.Context, draftID, participantID string) (models.DraftState, error)
}

// LeaguesApp defines what the service needs from the leagues application
type LeaguesApp interface {
	CreateLeague(ctx context.Context, req leagues.CreateLeagueRequest) (models.League, error)
	Join(ctx context.Context, req leagues.JoinRequest) (models.Participant, error)
	AddRobot(ctx context.Context, req leagues.AddRobotRequest) (models.Participant, error)
	Roster(ctx context.Context, leagueID string) (models.Roster, error)
}

// Service implements the DraftAdmin connect service
type Service struct {
	drafts  DraftsApp
	leagues LeaguesApp
}

// NewService creates a new admin service
func NewService(drafts DraftsApp, leagues LeaguesApp) *Service {
	return &Service{
		drafts:  drafts,
		leagues: leagues,
	}
}

// CreateDraft opens a new draft for a league
func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[CreateDraftResponse], error) {
	if strings.TrimSpace(req.Msg.LeagueID) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("leagueId is required"))
	}
	if _, err := s.leagues.Roster(ctx, req.Msg.LeagueID); err != nil {
		return nil, toConnectError(err)
	}

	draft, err := s.drafts.Create(ctx, req.Msg.LeagueID, req.Msg.Settings)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateDraftResponse{Draft: draft}), nil
}

// StartDraft starts a draft with its league's roster
func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[StartDraftResponse], error) {
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Start(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&StartDraftResponse{Draft: draft}), nil
}

// ResetDraft discards a draft and returns its replacement
func (s *Service) ResetDraft(ctx context.Context, req *connect.Request[ResetDraftRequest]) (*connect.Response[ResetDraftResponse], error) {
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Reset(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ResetDraftResponse{
		PreviousDraftID: req.Msg.DraftID,
		Draft:           draft,
	}), nil
}

// GetDraftState returns the draft read model, personalised when a participant is given
func (s *Service) GetDraftState(ctx context.Context, req *connect.Request[GetDraftStateRequest]) (*connect.Response[GetDraftStateResponse], error) {
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, err
	}
	state, err := s.drafts.DraftState(ctx, req.Msg.DraftID, req.Msg.ParticipantID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetDraftStateResponse{State: state}), nil
}

// CreateLeague creates a league
func (s *Service) CreateLeague(ctx context.Context, req *connect.Request[CreateLeagueRequest]) (*connect.Response[CreateLeagueResponse], error) {
	league, err := s.leagues.CreateLeague(ctx, leagues.CreateLeagueRequest{
		ID:   req.Msg.LeagueID,
		Name: req.Msg.Name,
		Size: req.Msg.Size,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateLeagueResponse{League: league}), nil
}

// JoinLeague adds a human participant to a league
func (s *Service) JoinLeague(ctx context.Context, req *connect.Request[JoinLeagueRequest]) (*connect.Response[JoinLeagueResponse], error) {
	p, err := s.leagues.Join(ctx, leagues.JoinRequest{
		LeagueID:      req.Msg.LeagueID,
		ParticipantID: req.Msg.ParticipantID,
		DisplayName:   req.Msg.DisplayName,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&JoinLeagueResponse{Participant: p}), nil
}

// AddRobot adds an automated participant to a league
func (s *Service) AddRobot(ctx context.Context, req *connect.Request[AddRobotRequest]) (*connect.Response[AddRobotResponse], error) {
	p, err := s.leagues.AddRobot(ctx, leagues.AddRobotRequest{
		LeagueID:    req.Msg.LeagueID,
		DisplayName: req.Msg.DisplayName,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AddRobotResponse{Participant: p}), nil
}

// GetRoster returns a league's members in join order
func (s *Service) GetRoster(ctx context.Context, req *connect.Request[GetRosterRequest]) (*connect.Response[GetRosterResponse], error) {
	if strings.TrimSpace(req.Msg.LeagueID) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("leagueId is required"))
	}
	roster, err := s.leagues.Roster(ctx, req.Msg.LeagueID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetRosterResponse{Roster: roster}), nil
}

// NewDraftAdminHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewDraftAdminHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateDraftProcedure, connect.NewUnaryHandler(CreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(StartDraftProcedure, connect.NewUnaryHandler(StartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(ResetDraftProcedure, connect.NewUnaryHandler(ResetDraftProcedure, svc.ResetDraft, opts...))
	mux.Handle(GetDraftStateProcedure, connect.NewUnaryHandler(GetDraftStateProcedure, svc.GetDraftState, opts...))
	mux.Handle(CreateLeagueProcedure, connect.NewUnaryHandler(CreateLeagueProcedure, svc.CreateLeague, opts...))
	mux.Handle(JoinLeagueProcedure, connect.NewUnaryHandler(JoinLeagueProcedure, svc.JoinLeague, opts...))
	mux.Handle(AddRobotProcedure, connect.NewUnaryHandler(AddRobotProcedure, svc.AddRobot, opts...))
	mux.Handle(GetRosterProcedure, connect.NewUnaryHandler(GetRosterProcedure, svc.GetRoster, opts...))
	return "/" + ServiceName + "/", mux
}

func requireDraftID(id string) error {
	if strings.TrimSpace(id) == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("draftId is required"))
	}
	return nil
}

// toConnectError maps domain errors onto connect codes. The draft error code
// travels in ErrorCodeHeader.
func toConnectError(err error) error {
	code := connectCode(err)
	if code == connect.CodeInternal {
		log.Error().Err(err).Msg("admin request failed")
	}
	cerr := connect.NewError(code, err)
	if draftCode := draftErrorCode(err); draftCode != "" {
		cerr.Meta().Set(ErrorCodeHeader, draftCode)
	}
	return cerr
}

func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, manager.ErrDraftNotFound), errors.Is(err, models.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, machine.ErrInvalidSettings), errors.Is(err, leagues.ErrInvalidRequest):
		return connect.CodeInvalidArgument
	case errors.Is(err, machine.ErrAlreadyStarted),
		errors.Is(err, machine.ErrIncompleteRoster),
		errors.Is(err, machine.ErrInsufficientTeams),
		errors.Is(err, machine.ErrDraftNotActive),
		errors.Is(err, machine.ErrNotYourTurn),
		errors.Is(err, machine.ErrTeamAlreadyTaken),
		errors.Is(err, machine.ErrUnknownTeam),
		errors.Is(err, machine.ErrLeagueMismatch),
		errors.Is(err, machine.ErrCorruptState),
		errors.Is(err, leagues.ErrLeagueFull):
		return connect.CodeFailedPrecondition
	case errors.Is(err, machine.ErrStopped):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

func draftErrorCode(err error) string {
	switch {
	case errors.Is(err, manager.ErrDraftNotFound):
		return "draft_not_found"
	case errors.Is(err, leagues.ErrLeagueFull):
		return "league_full"
	case errors.Is(err, leagues.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	}
	if code := machine.ErrorCode(err); code != "internal" {
		return code
	}
	return ""
}

// Client is a typed client for the DraftAdmin service.
type Client struct {
	createDraft   *connect.Client[CreateDraftRequest, CreateDraftResponse]
	startDraft    *connect.Client[StartDraftRequest, StartDraftResponse]
	resetDraft    *connect.Client[ResetDraftRequest, ResetDraftResponse]
	getDraftState *connect.Client[GetDraftStateRequest, GetDraftStateResponse]
	createLeague  *connect.Client[CreateLeagueRequest, CreateLeagueResponse]
	joinLeague    *connect.Client[JoinLeagueRequest, JoinLeagueResponse]
	addRobot      *connect.Client[AddRobotRequest, AddRobotResponse]
	getRoster     *connect.Client[GetRosterRequest, GetRosterResponse]
}

// NewClient constructs a client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		createDraft:   connect.NewClient[CreateDraftRequest, CreateDraftResponse](httpClient, baseURL+CreateDraftProcedure, opts...),
		startDraft:    connect.NewClient[StartDraftRequest, StartDraftResponse](httpClient, baseURL+StartDraftProcedure, opts...),
		resetDraft:    connect.NewClient[ResetDraftRequest, ResetDraftResponse](httpClient, baseURL+ResetDraftProcedure, opts...),
		getDraftState: connect.NewClient[GetDraftStateRequest, GetDraftStateResponse](httpClient, baseURL+GetDraftStateProcedure, opts...),
		createLeague:  connect.NewClient[CreateLeagueRequest, CreateLeagueResponse](httpClient, baseURL+CreateLeagueProcedure, opts...),
		joinLeague:    connect.NewClient[JoinLeagueRequest, JoinLeagueResponse](httpClient, baseURL+JoinLeagueProcedure, opts...),
		addRobot:      connect.NewClient[AddRobotRequest, AddRobotResponse](httpClient, baseURL+AddRobotProcedure, opts...),
		getRoster:     connect.NewClient[GetRosterRequest, GetRosterResponse](httpClient, baseURL+GetRosterProcedure, opts...),
	}
}

func (c *Client) CreateDraft(ctx context.Context, req *CreateDraftRequest) (*CreateDraftResponse, error) {
	return call(ctx, c.createDraft, req)
}

func (c *Client) StartDraft(ctx context.Context, req *StartDraftRequest) (*StartDraftResponse, error) {
	return call(ctx, c.startDraft, req)
}

func (c *Client) ResetDraft(ctx context.Context, req *ResetDraftRequest) (*ResetDraftResponse, error) {
	return call(ctx, c.resetDraft, req)
}

func (c *Client) GetDraftState(ctx context.Context, req *GetDraftStateRequest) (*GetDraftStateResponse, error) {
	return call(ctx, c.getDraftState, req)
}

func (c *Client) CreateLeague(ctx context.Context, req *CreateLeagueRequest) (*CreateLeagueResponse, error) {
	return call(ctx, c.createLeague, req)
}

func (c *Client) JoinLeague(ctx context.Context, req *JoinLeagueRequest) (*JoinLeagueResponse, error) {
	return call(ctx, c.joinLeague, req)
}

func (c *Client) AddRobot(ctx context.Context, req *AddRobotRequest) (*AddRobotResponse, error) {
	return call(ctx, c.addRobot, req)
}

func (c *Client) GetRoster(ctx context.Context, req *GetRosterRequest) (*GetRosterResponse, error) {
	return call(ctx, c.getRoster, req)
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	res, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	if res.Msg == nil {
		return nil, errors.New("empty response")
	}
	return res.Msg, nil
}
