package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/juhe-dining/roster/backend/internal/config"
	"github.com/juhe-dining/roster/backend/internal/repository"
	"github.com/juhe-dining/roster/backend/internal/seed"
	"github.com/juhe-dining/roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var branchID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机店员, 2: 插入随机班次模板, 3: 生成整套演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&branchID, "branch-id", 0, "店员或模板所属的门店 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
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

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的店员数量")
			return
		}
		if branchID <= 0 {
			slog.Error("请输入合法的门店 ID")
			return
		}

		positions, err := repo.GetAllPositions()
		if err != nil {
			slog.Error("无法获取岗位列表", slog.String("error", err.Error()))
			return
		}
		if len(positions) == 0 {
			slog.Error("请先插入岗位数据")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			position := positions[rand.Intn(len(positions))]

			user, err := utils.GenerateRandomStaff(cfg.Seed.User.Password, cfg.Email.UserDomain, branchID, position.ID)
			if err != nil {
				slog.Error("无法生成随机店员", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入店员", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入店员成功", slog.Int("count", n-cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的班次模板数量")
			return
		}
		if branchID <= 0 {
			slog.Error("请输入合法的门店 ID")
			return
		}

		positions, err := repo.GetAllPositions()
		if err != nil {
			slog.Error("无法获取岗位列表", slog.String("error", err.Error()))
			return
		}
		if len(positions) == 0 {
			slog.Error("请先插入岗位数据")
			return
		}

		positionIDs := make([]int64, 0, len(positions))
		for _, position := range positions {
			positionIDs = append(positionIDs, position.ID)
		}

		cnt := n
		for i := 0; i < n; i++ {
			st := utils.GenerateRandomShiftTemplate(branchID, positionIDs)
			if err := repo.CreateShiftTemplate(st); err != nil {
				slog.Error("无法插入班次模板", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入班次模板成功", slog.Int("count", n-cnt))
	case 3:
		seed.SeedDemoData(repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
	default:
		slog.Error("指定的操作非法")
	}
}
