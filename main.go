// cartservice/main.go

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/hipstershop/cartservice/cartstore"
	pb "github.com/hipstershop/cartservice/genproto/hipstershop"
	"github.com/hipstershop/cartservice/kvstore"
	"github.com/hipstershop/cartservice/services"
)

const (
	defaultPort     = "7070"
	defaultHTTPPort = "8080"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	ctx := context.Background()

	tp, err := initTracerProvider(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Warnf("error shutting down tracer provider: %v", err)
		}
	}()

	// Backend selection: Redis when configured, process memory otherwise.
	var kv kvstore.KeyValueStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		if !strings.Contains(redisAddr, ":") {
			redisAddr = redisAddr + ":6379"
		}
		log.Infof("using Redis cart backend at %s", redisAddr)
		kv = kvstore.NewRedisStore(redisAddr, log)
	} else {
		log.Warn("REDIS_ADDR not set, carts are kept in process memory and lost on restart")
		kv = kvstore.NewLocalStore()
	}
	if err := kv.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize cart backend: %v", err)
	}

	store := cartstore.New(kv, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	addr := fmt.Sprintf(":%s", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	pb.RegisterCartServiceServer(grpcServer, services.NewCartServiceServer(store))
	healthpb.RegisterHealthServer(grpcServer, services.NewHealthCheckService(store))
	reflection.Register(grpcServer)

	go runStatusServer(store)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("received shutdown signal, initiating graceful shutdown...")
		grpcServer.GracefulStop()
	}()

	log.Infof("cart service gRPC server listening on %s", addr)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("failed to serve gRPC server: %v", err)
	}
}

// runStatusServer exposes a plain-HTTP liveness surface next to the gRPC
// port, as the original host wiring did.
func runStatusServer(store cartstore.ICartStore) {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = defaultHTTPPort
	}

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "Cart service is running")
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !store.Ping(req.Context()) {
			http.Error(w, "cart backend unreachable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%s", port)
	log.Infof("status endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Errorf("status endpoint stopped: %v", err)
	}
}

// initTracerProvider initializes the OpenTelemetry TracerProvider with an
// OTLP exporter. The collector endpoint comes from
// OTEL_EXPORTER_OTLP_ENDPOINT, e.g. "otel-collector:4317".
func initTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating OTLP exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("cartservice"),
			semconv.ServiceVersionKey.String("v1.0.0"),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating resource")
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
