package main

import (
	"context"

	"github.com/atvirokodosprendimai/maintlog/internal/client"
	"github.com/atvirokodosprendimai/maintlog/internal/domain"
)

func doLogin(ctx context.Context, cfg cliConfig, username, password string) (client.LoginResult, error) {
	var out client.LoginResult
	if cfg.Transport == transportUDS {
		err := newRPCClient(cfg.Socket).call(ctx, "auth.login", map[string]any{
			"username": username,
			"password": password,
		}, &out)
		return out, err
	}
	return client.New(cfg.Server, "", nil).Login(ctx, username, password)
}

func doRecordsCreate(ctx context.Context, cfg cliConfig, in domain.RecordInput) (domain.Record, error) {
	if cfg.Transport == transportUDS {
		var out domain.Record
		err := newRPCClient(cfg.Socket).call(ctx, "records.create", map[string]any{
			"token":         cfg.Token,
			"category":      in.Category,
			"date":          in.Date,
			"model_name":    in.ModelName,
			"serial_number": in.SerialNumber,
			"content":       in.Content,
		}, &out)
		return out, err
	}
	return client.New(cfg.Server, cfg.Token, nil).CreateRecord(ctx, in)
}

func doRecordsSearch(ctx context.Context, cfg cliConfig, q, category string) ([]domain.Record, error) {
	if cfg.Transport == transportUDS {
		out := []domain.Record{}
		err := newRPCClient(cfg.Socket).call(ctx, "records.search", map[string]any{
			"token":    cfg.Token,
			"q":        q,
			"category": category,
		}, &out)
		return out, err
	}
	return client.New(cfg.Server, cfg.Token, nil).SearchRecords(ctx, q, category)
}

func doRecordsDelete(ctx context.Context, cfg cliConfig, id uint) error {
	if cfg.Transport == transportUDS {
		return newRPCClient(cfg.Socket).call(ctx, "records.delete", map[string]any{
			"token": cfg.Token,
			"id":    id,
		}, nil)
	}
	_, err := client.New(cfg.Server, cfg.Token, nil).DeleteRecord(ctx, id)
	return err
}
