package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/juhe-dining/roster/backend/internal/config"
	"github.com/juhe-dining/roster/backend/internal/domain"
)

// 每种消息类型对应一个模板文件和邮件主题
var mailKinds = map[string]struct {
	templateFile string
	subject      string
}{
	"create_user":        {"new_account_email.html", "聚禾餐饮排班系统 - 账户信息"},
	"reset_password":     {"reset_password_otp_email.html", "聚禾餐饮排班系统 - 重置密码"},
	"schedule_published": {"schedule_published_email.html", "聚禾餐饮排班系统 - 排班已发布"},
}

func buildMail(sender string, message *domain.MailMessage) (*mail.Msg, error) {
	kind, ok := mailKinds[message.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型 %q", message.Type)
	}

	tmpl, err := template.ParseFiles("./templates/" + kind.templateFile)
	if err != nil {
		return nil, fmt.Errorf("解析邮件模板失败: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(sender); err != nil {
		return nil, err
	}
	if err := msg.To(message.To); err != nil {
		return nil, err
	}
	if err := msg.SetBodyHTMLTemplate(tmpl, message.Data); err != nil {
		return nil, fmt.Errorf("渲染邮件正文失败: %w", err)
	}
	msg.Subject(kind.subject)
	return msg, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 启动时先拨号一次，配置有问题就直接失败，而不是第一封邮件才暴露
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 队列声明与 api 侧保持一致：持久化、不自动删除
	q, err := ch.QueueDeclare(cfg.RabbitMQ.MailQueue, true, false, false, false, nil)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery := <-msgs:
				logger.Info("收到消息", slog.String("message", string(delivery.Body)))

				mailMessage := domain.MailMessage{}
				if err := json.Unmarshal(delivery.Body, &mailMessage); err != nil {
					logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
					_ = delivery.Nack(false, false)
					continue
				}

				msg, err := buildMail(cfg.Email.SMTP.Username, &mailMessage)
				if err != nil {
					// 构建失败说明消息本身有问题，重新入队也没用
					logger.Error("构建邮件失败", slog.String("error", err.Error()))
					_ = delivery.Nack(false, false)
					continue
				}

				if err := client.DialAndSend(msg); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = delivery.Nack(false, true)
					continue
				}

				_ = delivery.Ack(false)
			}
		}
	}()

	logger.Info("mail worker 已启动, 等待消息...")
	<-sigChan

	logger.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
}
