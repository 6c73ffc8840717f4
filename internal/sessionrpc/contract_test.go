package sessionrpc

import (
	"os"
	"reflect"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

const protoFile = "../../proto/sessionkeeper/v1/session.proto"

var rpcLine = regexp.MustCompile(`rpc (\w+)\(([\w.]+)\) returns \(([\w.]+)\);`)

// TestServiceDesc_MatchesProto keeps the hand-written descriptor and the
// documented .proto contract in step.
func TestServiceDesc_MatchesProto(t *testing.T) {
	src, err := os.ReadFile(protoFile)
	require.NoError(t, err)

	assert.Contains(t, string(src), "package sessionkeeper.v1;")
	assert.Contains(t, string(src), "service SessionService {")
	assert.Equal(t, "sessionkeeper/v1/session.proto", ServiceDesc.Metadata)

	type sig struct{ req, resp string }
	declared := map[string]sig{}
	for _, m := range rpcLine.FindAllStringSubmatch(string(src), -1) {
		declared[m[1]] = sig{req: m[2], resp: m[3]}
	}

	server := reflect.TypeOf((*SessionServiceServer)(nil)).Elem()
	require.Len(t, declared, len(ServiceDesc.Methods))
	require.Equal(t, server.NumMethod(), len(ServiceDesc.Methods))

	for _, md := range ServiceDesc.Methods {
		want, ok := declared[md.MethodName]
		if !ok {
			t.Fatalf("%s is not declared in %s", md.MethodName, protoFile)
		}
		m, ok := server.MethodByName(md.MethodName)
		require.True(t, ok, md.MethodName)

		req := reflect.New(m.Type.In(1).Elem()).Interface().(proto.Message)
		resp := reflect.New(m.Type.Out(0).Elem()).Interface().(proto.Message)
		assert.Equal(t, want.req, string(req.ProtoReflect().Descriptor().FullName()), md.MethodName+" request")
		assert.Equal(t, want.resp, string(resp.ProtoReflect().Descriptor().FullName()), md.MethodName+" response")
	}
}
