package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const CompetitionServiceName = "votearena.v1.CompetitionService"

const (
	ResolvePhaseProcedure       = "/" + CompetitionServiceName + "/ResolvePhase"
	CalculatePrizePoolProcedure = "/" + CompetitionServiceName + "/CalculatePrizePool"
	GetReadModelProcedure       = "/" + CompetitionServiceName + "/GetReadModel"
)

// CompetitionServiceHandler is the server side of CompetitionService
type CompetitionServiceHandler interface {
	ResolvePhase(context.Context, *connect.Request[ResolvePhaseRequest]) (*connect.Response[ResolvePhaseResponse], error)
	CalculatePrizePool(context.Context, *connect.Request[CalculatePrizePoolRequest]) (*connect.Response[CalculatePrizePoolResponse], error)
	GetReadModel(context.Context, *connect.Request[GetReadModelRequest]) (*connect.Response[GetReadModelResponse], error)
}

// NewCompetitionServiceHandler returns the mount path and handler for svc.
func NewCompetitionServiceHandler(svc CompetitionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	resolvePhase := connect.NewUnaryHandler(ResolvePhaseProcedure, svc.ResolvePhase, opts...)
	calculatePrizePool := connect.NewUnaryHandler(CalculatePrizePoolProcedure, svc.CalculatePrizePool, opts...)
	getReadModel := connect.NewUnaryHandler(GetReadModelProcedure, svc.GetReadModel, opts...)

	return "/" + CompetitionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ResolvePhaseProcedure:
			resolvePhase.ServeHTTP(w, r)
		case CalculatePrizePoolProcedure:
			calculatePrizePool.ServeHTTP(w, r)
		case GetReadModelProcedure:
			getReadModel.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewCompetitionServiceClient calls a CompetitionService at baseURL.
func NewCompetitionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CompetitionServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &CompetitionServiceClient{
		resolvePhase:       connect.NewClient[ResolvePhaseRequest, ResolvePhaseResponse](httpClient, baseURL+ResolvePhaseProcedure, opts...),
		calculatePrizePool: connect.NewClient[CalculatePrizePoolRequest, CalculatePrizePoolResponse](httpClient, baseURL+CalculatePrizePoolProcedure, opts...),
		getReadModel:       connect.NewClient[GetReadModelRequest, GetReadModelResponse](httpClient, baseURL+GetReadModelProcedure, opts...),
	}
}

type CompetitionServiceClient struct {
	resolvePhase       *connect.Client[ResolvePhaseRequest, ResolvePhaseResponse]
	calculatePrizePool *connect.Client[CalculatePrizePoolRequest, CalculatePrizePoolResponse]
	getReadModel       *connect.Client[GetReadModelRequest, GetReadModelResponse]
}

func (c *CompetitionServiceClient) ResolvePhase(ctx context.Context, req *connect.Request[ResolvePhaseRequest]) (*connect.Response[ResolvePhaseResponse], error) {
	return c.resolvePhase.CallUnary(ctx, req)
}

func (c *CompetitionServiceClient) CalculatePrizePool(ctx context.Context, req *connect.Request[CalculatePrizePoolRequest]) (*connect.Response[CalculatePrizePoolResponse], error) {
	return c.calculatePrizePool.CallUnary(ctx, req)
}

func (c *CompetitionServiceClient) GetReadModel(ctx context.Context, req *connect.Request[GetReadModelRequest]) (*connect.Response[GetReadModelResponse], error) {
	return c.getReadModel.CallUnary(ctx, req)
}
