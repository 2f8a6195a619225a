// Command backoffice wires the full bond back-office dataflow: four
// inbound feeds drive Pricing, MarketData, TradeBooking, and Inquiry;
// their downstream services propagate synchronously to GUI, Streaming,
// AlgoExecution/Execution, Position, Risk, and a HistoricalData sink
// behind every terminal node.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/ndrandal/bond-backoffice/internal/booking"
	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/config"
	"github.com/ndrandal/bond-backoffice/internal/execution"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/gui"
	"github.com/ndrandal/bond-backoffice/internal/historical"
	"github.com/ndrandal/bond-backoffice/internal/inquiry"
	"github.com/ndrandal/bond-backoffice/internal/marketdata"
	"github.com/ndrandal/bond-backoffice/internal/position"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
	"github.com/ndrandal/bond-backoffice/internal/risk"
	"github.com/ndrandal/bond-backoffice/internal/streaming"
	"github.com/ndrandal/bond-backoffice/internal/telemetry"
	"github.com/ndrandal/bond-backoffice/internal/transport"
)

func main() {
	cfg := config.Load()
	logger := telemetry.NewLogger(false)
	defer logger.Sync()

	logger.Info("bond back-office starting", zap.String("host", cfg.Host), zap.Int("transport_port", cfg.TransportPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	metrics, registry := telemetry.NewMetrics()
	guiBroadcaster := gui.NewBroadcaster[catalog.Bond]()
	go serveMetrics(ctx, cfg.MetricsPort, registry, guiBroadcaster, logger)

	cat := catalog.New()
	bonds := make([]catalog.Bond, 0, len(cat.All()))
	for _, e := range cat.All() {
		bonds = append(bonds, e.Bond)
	}

	// --- Pricing -> GUI, Pricing -> AlgoStreaming -> Streaming ---
	pricingSvc := pricing.NewService[catalog.Bond]()

	guiFile, err := historical.NewFileSink[gui.Tick[catalog.Bond]]("gui.ndjson")
	if err != nil {
		logger.Fatal("open gui historical sink", zap.Error(err))
	}
	guiHistorical := historical.NewService[gui.Tick[catalog.Bond]](guiFile)
	guiSvc := gui.NewService[catalog.Bond](cfg.GUIThrottle, cfg.GUIMaxSamples,
		fabric.ConnectorFunc[gui.Tick[catalog.Bond]](func(t gui.Tick[catalog.Bond]) error {
			metrics.GUIEmitted.Inc()
			guiHistorical.OnMessage(t)
			return guiBroadcaster.Publish(t)
		}),
		gui.WithDropHook[catalog.Bond](func() { metrics.GUIDropped.Inc() }),
	)
	pricingSvc.AddListener(fabric.OnAdd(guiSvc.OnPrice))

	algoStreamingSvc := streaming.NewAlgoStreamingService[catalog.Bond]()
	streamingSvc := streaming.NewService[catalog.Bond]()
	pricingSvc.AddListener(fabric.OnAdd(algoStreamingSvc.OnPrice))
	algoStreamingSvc.AddListener(fabric.OnAdd(streamingSvc.OnPriceStream))

	streamingFile, err := historical.NewFileSink[streaming.PriceStream[catalog.Bond]]("streaming.ndjson")
	if err != nil {
		logger.Fatal("open streaming historical sink", zap.Error(err))
	}
	streamingHistorical := historical.NewService[streaming.PriceStream[catalog.Bond]](streamingFile)
	streamingSvc.AddListener(fabric.OnAdd(streamingHistorical.OnMessage))

	// --- MarketData -> AlgoExecution -> Execution -> (historical, TradeBooking bridge) ---
	marketDataSvc := marketdata.NewService[catalog.Bond]()
	algoExecutionSvc := execution.NewAlgoExecutionService[catalog.Bond](
		execution.WithDropHook[catalog.Bond](func() { metrics.ExecutionsDropped.Inc() }),
	)
	executionSvc := execution.NewExecutionService[catalog.Bond]()
	marketDataSvc.AddListener(fabric.OnAdd(algoExecutionSvc.OnBook))
	algoExecutionSvc.AddListener(fabric.Funcs[execution.ExecutionOrder[catalog.Bond]]{
		Add: func(e execution.ExecutionOrder[catalog.Bond]) {
			metrics.ExecutionsEmitted.Inc()
			executionSvc.ExecuteOrder(e, nil)
		},
	})

	executionFile, err := historical.NewFileSink[execution.ExecutionOrder[catalog.Bond]]("executions.ndjson")
	if err != nil {
		logger.Fatal("open execution historical sink", zap.Error(err))
	}
	executionHistorical := historical.NewService[execution.ExecutionOrder[catalog.Bond]](executionFile)
	executionSvc.AddListener(fabric.OnAdd(executionHistorical.OnMessage))

	// --- Optional durable backends: Mongo for archival, Redis for a
	// cross-process persistence-key sequence. Both are best-effort: a
	// deployment with neither configured reachable still runs on the
	// file sinks and in-memory counters alone.
	mongoDB := connectMongo(ctx, cfg.MongoURI, logger)
	redisClient := connectRedis(ctx, cfg.RedisAddr, logger)
	if cfg.S3Bucket != "" {
		go runS3Archival(ctx, cfg, logger)
	}

	// --- TradeBooking (inbound + Execution synthesis bridge) -> Position -> (historical, Risk -> historical) ---
	bookingSvc := booking.NewService[catalog.Bond]()
	synthesisBridge := booking.NewSynthesisBridge(bookingSvc)
	executionSvc.AddListener(fabric.OnAdd(synthesisBridge.OnExecution))
	bookingSvc.AddListener(fabric.Funcs[booking.Trade[catalog.Bond]]{
		Add: func(booking.Trade[catalog.Bond]) { metrics.TradesBooked.Inc() },
	})

	tradeFile, err := historical.NewFileSink[booking.Trade[catalog.Bond]]("trades.ndjson")
	if err != nil {
		logger.Fatal("open trade historical sink", zap.Error(err))
	}
	tradeConnector := fabric.Connector[booking.Trade[catalog.Bond]](tradeFile)
	if mongoDB != nil {
		tradesCollection := mongoDB.Collection("trades")
		tradeConnector = fabric.Fanout[booking.Trade[catalog.Bond]]{
			tradeFile,
			historical.NewMongoSink[booking.Trade[catalog.Bond]](ctx, mongoDB, "trades"),
		}
		go historical.RunRetention(ctx, tradesCollection, cfg.MongoRetentionDays)
	}
	tradeHistorical := historical.NewService[booking.Trade[catalog.Bond]](tradeConnector)
	bookingSvc.AddListener(fabric.OnAdd(tradeHistorical.OnMessage))

	positionSvc := position.NewService[catalog.Bond](bonds)
	bookingSvc.AddListener(fabric.OnAdd(positionSvc.OnTrade))

	positionFile, err := historical.NewFileSink[position.Position[catalog.Bond]]("positions.ndjson")
	if err != nil {
		logger.Fatal("open position historical sink", zap.Error(err))
	}
	positionOpts := []historical.Option[position.Position[catalog.Bond]]{}
	if redisClient != nil {
		positionOpts = append(positionOpts, historical.WithCounter[position.Position[catalog.Bond]](
			historical.NewRedisCounter(ctx, redisClient, "backoffice:positions:seq"),
		))
	}
	positionHistorical := historical.NewService[position.Position[catalog.Bond]](positionFile, positionOpts...)
	positionSvc.AddListener(fabric.OnAdd(positionHistorical.OnMessage))

	riskSvc := risk.NewService[catalog.Bond](cat)
	positionSvc.AddListener(fabric.OnAdd(riskSvc.OnPosition))

	riskFile, err := historical.NewFileSink[risk.PV01[catalog.Bond]]("risk.ndjson")
	if err != nil {
		logger.Fatal("open risk historical sink", zap.Error(err))
	}
	riskHistorical := historical.NewService[risk.PV01[catalog.Bond]](riskFile)
	riskSvc.AddListener(fabric.OnAdd(riskHistorical.OnMessage))

	// --- Inquiry (self-looping state machine) -> historical ---
	inquirySvc := inquiry.NewServiceWithLoopback[catalog.Bond]()
	inquiryFile, err := historical.NewFileSink[inquiry.Inquiry[catalog.Bond]]("inquiries.ndjson")
	if err != nil {
		logger.Fatal("open inquiry historical sink", zap.Error(err))
	}
	inquiryHistorical := historical.NewService[inquiry.Inquiry[catalog.Bond]](inquiryFile)
	inquirySvc.AddListener(fabric.Funcs[inquiry.Inquiry[catalog.Bond]]{
		Add: func(inq inquiry.Inquiry[catalog.Bond]) {
			if inq.State == inquiry.Rejected {
				metrics.InquiriesRejected.Inc()
			}
			inquiryHistorical.OnMessage(inq)
		},
	})

	// --- Inbound feeds, driven sequentially in the fixed startup order:
	// trades, market-data, prices, inquiries.
	if len(cfg.KafkaBrokers) > 0 {
		go runKafkaInquiryFeed(ctx, cfg, logger, cat, inquirySvc)
	}
	runInboundFeeds(ctx, cfg, logger, cat, bookingSvc, marketDataSvc, pricingSvc, inquirySvc)

	logger.Info("bond back-office stopped")
}

// connectMongo dials MongoDB for the optional trade archive. A failed
// connection is logged and treated as "not configured" rather than
// fatal — the file sink alone keeps the pipeline running.
func connectMongo(ctx context.Context, uri string, logger *zap.Logger) *mongo.Database {
	if uri == "" {
		return nil
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		logger.Warn("mongo connect failed, archival disabled", zap.Error(err))
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Warn("mongo ping failed, archival disabled", zap.Error(err))
		return nil
	}
	dbName := "backoffice"
	if u, err := url.Parse(uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			dbName = name
		}
	}
	logger.Info("connected to mongodb", zap.String("db", dbName))
	return client.Database(dbName)
}

// connectRedis dials Redis for the optional durable persistence-key
// sequence. As with Mongo, a failed connection degrades to the default
// in-memory counter instead of failing startup.
func connectRedis(ctx context.Context, addr string, logger *zap.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed, durable counter disabled", zap.Error(err))
		return nil
	}
	logger.Info("connected to redis", zap.String("addr", addr))
	return client
}

// runS3Archival rolls every NDJSON historical sink file into S3 on a
// fixed interval. A failed AWS config load disables archival for this
// run rather than aborting startup.
func runS3Archival(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		logger.Warn("aws config load failed, s3 archival disabled", zap.Error(err))
		return
	}
	client := s3.NewFromConfig(awsCfg)
	interval := time.Duration(cfg.ArchiveIntervalHours) * time.Hour

	files := []string{"gui.ndjson", "streaming.ndjson", "executions.ndjson", "trades.ndjson", "positions.ndjson", "risk.ndjson", "inquiries.ndjson"}
	for _, f := range files {
		archiver := historical.NewS3Archiver(client, cfg.S3Bucket, cfg.S3Prefix+"/"+strings.TrimSuffix(f, ".ndjson"), f, interval)
		go archiver.Run(ctx)
	}
	logger.Info("s3 archival started", zap.String("bucket", cfg.S3Bucket), zap.Duration("interval", interval))
}

// runKafkaInquiryFeed is an alternate inbound driver for deployments
// that publish inquiry records onto a Kafka topic instead of dialing
// the line-protocol transport. It runs alongside the TCP feeds, not
// instead of them.
func runKafkaInquiryFeed(ctx context.Context, cfg *config.Config, logger *zap.Logger, cat *catalog.Catalog, inquirySvc *inquiry.Service[catalog.Bond]) {
	reader := transport.NewKafkaFeedReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup)
	defer reader.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line, err := reader.Next(ctx)
		if err != nil {
			logger.Error("kafka inquiry feed", zap.Error(err))
			return
		}
		inq, err := transport.DecodeInquiry(cat, line)
		if err != nil {
			logger.Error("decode kafka inquiry record", zap.Error(err))
			continue
		}
		inquirySvc.OnMessage(inq)
	}
}

func serveMetrics(ctx context.Context, port int, reg *prometheus.Registry, broadcaster *gui.Broadcaster[catalog.Bond], logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))
	mux.Handle("/gui/ws", broadcaster.Handler())
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server", zap.Error(err))
	}
}

func runInboundFeeds(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	cat *catalog.Catalog,
	bookingSvc *booking.Service[catalog.Bond],
	marketDataSvc *marketdata.Service[catalog.Bond],
	pricingSvc *pricing.Service[catalog.Bond],
	inquirySvc *inquiry.Service[catalog.Bond],
) {
	feeds := []struct {
		name string
		run  func(ctx context.Context, r *transport.FeedReader) error
	}{
		{"trades.txt", func(ctx context.Context, r *transport.FeedReader) error {
			return driveFeed(ctx, r, func(line string) error {
				tr, err := transport.DecodeTrade(cat, line)
				if err != nil {
					return err
				}
				bookingSvc.OnMessage(tr)
				return nil
			})
		}},
		{"marketdata.txt", func(ctx context.Context, r *transport.FeedReader) error {
			return driveFeed(ctx, r, func(line string) error {
				book, err := transport.DecodeMarketData(cat, line)
				if err != nil {
					return err
				}
				marketDataSvc.OnMessage(book)
				return nil
			})
		}},
		{"prices.txt", func(ctx context.Context, r *transport.FeedReader) error {
			return driveFeed(ctx, r, func(line string) error {
				p, err := transport.DecodePrice(cat, line)
				if err != nil {
					return err
				}
				return pricingSvc.OnMessage(p)
			})
		}},
		{"inquiries.txt", func(ctx context.Context, r *transport.FeedReader) error {
			return driveFeed(ctx, r, func(line string) error {
				inq, err := transport.DecodeInquiry(cat, line)
				if err != nil {
					return err
				}
				inquirySvc.OnMessage(inq)
				return nil
			})
		}},
	}

	for i, feed := range feeds {
		select {
		case <-ctx.Done():
			return
		default:
		}
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.TransportPort+i)
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			logger.Error("dial inbound feed", zap.String("feed", feed.name), zap.String("addr", addr), zap.Error(err))
			continue
		}
		reader := transport.NewFeedReader(conn, feed.name)
		if err := reader.Open(); err != nil {
			logger.Error("open inbound feed", zap.String("feed", feed.name), zap.Error(err))
			conn.Close()
			continue
		}
		if err := driveFeedCatchingFatal(feed.run, ctx, reader, logger); err != nil {
			logger.Error("drive inbound feed", zap.String("feed", feed.name), zap.Error(err))
		}
		conn.Close()
	}
}

// driveFeedCatchingFatal recovers a *fabric.FatalError panic raised
// anywhere in the synchronous service graph run reaches into (e.g.
// position.Service.OnTrade finding no pre-seeded entry for a known
// product) and surfaces it through logger.Fatal, the same boundary every
// other fatal condition in this process uses. Any other panic is not this
// process's to interpret and is re-raised.
func driveFeedCatchingFatal(run func(ctx context.Context, r *transport.FeedReader) error, ctx context.Context, r *transport.FeedReader, logger *zap.Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if fe, ok := rec.(*fabric.FatalError); ok {
				logger.Fatal("fatal condition in service graph", zap.Error(fe))
			}
			panic(rec)
		}
	}()
	return run(ctx, r)
}

func driveFeed(ctx context.Context, r *transport.FeedReader, handle func(line string) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := handle(line); err != nil {
			return err
		}
	}
}
