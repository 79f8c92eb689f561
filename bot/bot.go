package bot

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/catalog"
	"github.com/lavrelin/offtrix-sub000/command"
	"github.com/lavrelin/offtrix-sub000/config"
	"github.com/lavrelin/offtrix-sub000/db"
	"github.com/lavrelin/offtrix-sub000/handler"
	"github.com/lavrelin/offtrix-sub000/ratelimit"
	"github.com/lavrelin/offtrix-sub000/submission"
	"github.com/lavrelin/offtrix-sub000/utils"
)

const dbSource = "./data/offtrix.db"

var dg *discordgo.Session

// Start 启动机器人
func Start() {
	err := config.LoadConfig()
	if err != nil {
		log.Printf("加载配置文件时出错: %v", err)
		return
	}

	// 使用提供的机器人令牌创建一个新的 Discord 会话
	dg, err = discordgo.New("Bot " + config.Cfg.Token)
	if err != nil {
		log.Printf("创建 Discord 会话时出错, %v", err)
		return
	}

	// The store is optional: without it the bot keeps running in a
	// rate-limiting-only degraded mode.
	store, err := db.Open(dbSource)
	if err != nil {
		log.Printf("FATAL-ish: store unreachable, running degraded (no catalog/submissions): %v", err)
		store = nil
	}

	privileged := func(userID string) bool {
		if utils.IsPrivileged(userID) {
			return true
		}
		for _, guildID := range config.Cfg.Commands.Allowguils {
			member, merr := dg.State.Member(guildID, userID)
			if merr != nil {
				member, merr = dg.GuildMember(guildID, userID)
				if merr != nil {
					continue
				}
			}
			if utils.CheckAuth(userID, member.Roles) {
				return true
			}
		}
		return false
	}

	var limiter *ratelimit.Limiter
	if store != nil {
		limiter = ratelimit.New(privileged, ratelimit.WithMirror(store))
		if recs, lerr := store.ListActiveCooldowns(time.Now()); lerr != nil {
			log.Printf("Failed to load mirrored cooldowns: %v", lerr)
		} else {
			limiter.Restore(recs)
		}
	} else {
		limiter = ratelimit.New(privileged)
	}
	limiter.StartSweeper(5 * time.Minute)

	cfg := config.Cfg.Bot
	messenger := NewMessenger(dg, cfg.ReviewChannelID, cfg.PublishChannelID, cfg.ScratchChannelID)

	engine := catalog.New(storeOrNil(store), limiter, messenger, catalog.Config{
		PageSize:        cfg.Catalog.PageSize,
		RatingThreshold: cfg.Catalog.RatingThreshold,
		AdFrequency:     cfg.Catalog.AdFrequency,
		SessionTTL:      time.Duration(cfg.Catalog.SessionMinutes) * time.Minute,
		DraftTTL:        time.Duration(cfg.Catalog.DraftMinutes) * time.Minute,
		ReviewWindow:    cfg.Cooldown.ReviewWindow(),
	})
	engine.StartJanitor(5 * time.Minute)

	pipeline := submission.New(pipelineStoreOrNil(store), messenger, limiter, cfg.Cooldown.SubmitWindow(), privileged)

	handler.Register(&handler.Deps{
		Engine:   engine,
		Pipeline: pipeline,
		Limiter:  limiter,
		Burst:    cfg.Cooldown.BurstWindow(),
		PageSize: cfg.Catalog.PageSize,
	})

	registerEventHandlers(dg)

	err = dg.Open()
	if err != nil {
		log.Printf("error opening connection, %v", err)
		return
	}

	for _, guildID := range config.Cfg.Commands.Allowguils {
		for _, cmd := range command.AllCommands {
			_, err := dg.ApplicationCommandCreate(dg.State.User.ID, guildID, cmd)
			if err != nil {
				log.Fatalf("Cannot create '%v' command: %v", cmd.Name, err)
			}
		}
	}

	log.Printf("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Drain the background loops before the store goes away.
	limiter.Stop()
	engine.Stop()
	if store != nil {
		store.Close()
	}
	dg.Close()
}

// storeOrNil keeps a typed nil from sneaking into the catalog interface.
func storeOrNil(store *db.Store) catalog.Store {
	if store == nil {
		return nil
	}
	return store
}

func pipelineStoreOrNil(store *db.Store) submission.Store {
	if store == nil {
		return nil
	}
	return store
}
