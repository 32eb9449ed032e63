package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/juhe-dining/roster/backend/internal/config"
	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/handler"
	"github.com/juhe-dining/roster/backend/internal/repository"
	"github.com/juhe-dining/roster/backend/internal/roster"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository 和排班服务
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)
	rosterService := roster.NewService(repo)

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("无法生成初始管理员密码哈希", "error", err)
		return
	}
	initialAdmin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}
	if err := repo.CreateUser(initialAdmin); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_username_key":
				// 如果返回这个错误，说明数据库中已经存在初始管理员，不处理
			default:
				logger.Error("无法创建初始管理员", "error", err)
				return
			}
		default:
			logger.Error("无法创建初始管理员", "error", err)
			return
		}
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 声明队列：邮件队列由本服务生产、mail worker 消费；
	// 请假事件队列由假勤系统生产、本服务消费
	for _, queue := range []string{cfg.RabbitMQ.MailQueue, cfg.RabbitMQ.LeaveQueue} {
		_, err = ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Error("无法声明队列", "queue", queue, "error", err)
			return
		}
	}

	/**********************************************
	 * 消费请假事件
	 **********************************************/
	leaveMsgs, err := ch.Consume(
		cfg.RabbitMQ.LeaveQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费请假事件", "error", err)
		return
	}

	consumeCtx, consumeCancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeLeaveEvents(consumeCtx, logger, rosterService, leaveMsgs)
	}()

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, rosterService, ch, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}

	consumeCancel()
	wg.Wait()
	logger.Info("服务器已成功关闭")
}

// leaveEventApplier 是 consumeLeaveEvents 用到的 roster.Service 子集。
type leaveEventApplier interface {
	ApplyLeaveApproved(evt *domain.LeaveApprovedEvent) (int, error)
	ApplyLeaveCancelled(evt *domain.LeaveCancelledEvent) (int, error)
}

// consumeLeaveEvents 消费假勤系统发来的请假事件，把受影响的排班
// 改成对应的请假状态。处理失败的消息重新入队，等待下一次投递。
// 每条投递只确认一次：要么 Ack，要么 Nack，重复确认会被 RabbitMQ
// 视为协议错误并关闭整个通道。
func consumeLeaveEvents(ctx context.Context, logger *slog.Logger, rosterService leaveEventApplier, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			logger.Info("收到请假事件", slog.String("message", string(msg.Body)))

			event := domain.LeaveEventMessage{}
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				logger.Error("请假事件反序列化失败", slog.String("error", err.Error()))
				_ = msg.Nack(false, false)
				continue
			}

			switch event.Type {
			case "leave_approved":
				approved := domain.LeaveApprovedEvent{}
				if err := json.Unmarshal(event.Data, &approved); err != nil {
					logger.Error("请假事件反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				affected, err := rosterService.ApplyLeaveApproved(&approved)
				if err != nil {
					logger.Error("处理请假批准事件失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}

				logger.Info("请假批准事件处理完成", slog.Int64("userID", approved.UserID), slog.Int("affected", affected))
			case "leave_cancelled":
				cancelled := domain.LeaveCancelledEvent{}
				if err := json.Unmarshal(event.Data, &cancelled); err != nil {
					logger.Error("请假事件反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				affected, err := rosterService.ApplyLeaveCancelled(&cancelled)
				if err != nil {
					logger.Error("处理请假取消事件失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}

				logger.Info("请假取消事件处理完成", slog.Int64("userID", cancelled.UserID), slog.Int("affected", affected))
			default:
				logger.Error("不支持的请假事件类型", slog.String("type", event.Type))
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}
