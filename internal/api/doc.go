// Package api contains API service implementations.
//
// The grpc subpackage holds the transport layer for the daemon:
//
//   - grpc/control/: the samepaged.v1 ControlService, which forwards
//     Add, Del, Merge and Refresh commands to the dedup core
//   - grpc/interceptors/: server middleware shared by control services
//
// Services validate requests and map domain errors to gRPC status codes;
// all dedup semantics live in internal/dedup behind the core's command
// queue.
package api
