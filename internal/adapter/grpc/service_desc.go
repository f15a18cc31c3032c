package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "folio.v1.PortfolioService"

// PortfolioServiceServer is the server API of folio.v1.PortfolioService
// Every message is a google.protobuf.Struct; decimals travel as strings.
type PortfolioServiceServer interface {
	GetPortfolioSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPortfolioValuation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnwatchAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordPricePoints(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreatePortfolio(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPortfolios(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePortfolio(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePortfolio(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PortfolioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortfolioServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PortfolioServiceDesc describes folio.v1.PortfolioService for grpc.Server.RegisterService
var PortfolioServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("GetPortfolioSummary", PortfolioServiceServer.GetPortfolioSummary),
		methodDesc("GetPortfolioValuation", PortfolioServiceServer.GetPortfolioValuation),
		methodDesc("RecordTransaction", PortfolioServiceServer.RecordTransaction),
		methodDesc("UpdateTransaction", PortfolioServiceServer.UpdateTransaction),
		methodDesc("DeleteTransaction", PortfolioServiceServer.DeleteTransaction),
		methodDesc("WatchAsset", PortfolioServiceServer.WatchAsset),
		methodDesc("UnwatchAsset", PortfolioServiceServer.UnwatchAsset),
		methodDesc("RecordPricePoints", PortfolioServiceServer.RecordPricePoints),
		methodDesc("CreatePortfolio", PortfolioServiceServer.CreatePortfolio),
		methodDesc("ListPortfolios", PortfolioServiceServer.ListPortfolios),
		methodDesc("UpdatePortfolio", PortfolioServiceServer.UpdatePortfolio),
		methodDesc("DeletePortfolio", PortfolioServiceServer.DeletePortfolio),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "folio/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers srv on a gRPC server
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&PortfolioServiceDesc, srv)
}

// Client calls folio.v1.PortfolioService over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new PortfolioService client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPortfolioSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetPortfolioSummary", in, opts...)
}

func (c *Client) GetPortfolioValuation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetPortfolioValuation", in, opts...)
}

func (c *Client) RecordTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RecordTransaction", in, opts...)
}

func (c *Client) UpdateTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdateTransaction", in, opts...)
}

func (c *Client) DeleteTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeleteTransaction", in, opts...)
}

func (c *Client) WatchAsset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "WatchAsset", in, opts...)
}

func (c *Client) UnwatchAsset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UnwatchAsset", in, opts...)
}

func (c *Client) RecordPricePoints(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RecordPricePoints", in, opts...)
}

func (c *Client) CreatePortfolio(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreatePortfolio", in, opts...)
}

func (c *Client) ListPortfolios(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListPortfolios", in, opts...)
}

func (c *Client) UpdatePortfolio(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdatePortfolio", in, opts...)
}

func (c *Client) DeletePortfolio(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeletePortfolio", in, opts...)
}
