package generator

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/roundtable/internal/domain"
)

// generatorServer is the handler type of the generation service.
type generatorServer interface {
	generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type serverAdapter struct {
	gen domain.Generator
}

func (s serverAdapter) generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	opts := domain.GenerationOptions{
		Model:           fields["model"].GetStringValue(),
		Temperature:     float32(fields["temperature"].GetNumberValue()),
		MaxOutputTokens: int(fields["max_output_tokens"].GetNumberValue()),
	}
	text, err := s.gen.Generate(ctx, fields["prompt"].GetStringValue(), opts)
	if err != nil {
		return structpb.NewStruct(map[string]any{"error": err.Error()})
	}
	return structpb.NewStruct(map[string]any{"text": text})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*generatorServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Generate",
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := &structpb.Struct{}
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(generatorServer).generate(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return srv.(generatorServer).generate(ctx, req.(*structpb.Struct))
			})
		},
	}},
	Metadata: "roundtable/v1/generator",
}

// RegisterServer exposes gen as the generation service on s.
// Generator errors travel in the reply's "error" field rather than as a status.
func RegisterServer(s grpc.ServiceRegistrar, gen domain.Generator) {
	s.RegisterService(&serviceDesc, serverAdapter{gen: gen})
}
