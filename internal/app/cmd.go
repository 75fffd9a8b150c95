package app

import "strconv"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は保存済み投稿の整理ワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandServe, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// MigrateAction は migrate サブコマンドの動作を表す。
type MigrateAction struct {
	Name  string // up, down, version
	Steps int    // down のときに戻すステップ数
}

// ParseMigrateAction は migrate に続く引数を解析する。
// 引数なしは up。down の既定ステップ数は1。
func ParseMigrateAction(args []string) (MigrateAction, bool) {
	if len(args) == 0 {
		return MigrateAction{Name: "up"}, true
	}

	switch args[0] {
	case "up", "version":
		return MigrateAction{Name: args[0]}, len(args) == 1
	case "down":
		action := MigrateAction{Name: "down", Steps: 1}
		if len(args) == 1 {
			return action, true
		}
		steps, err := strconv.Atoi(args[1])
		if err != nil || steps <= 0 || len(args) > 2 {
			return MigrateAction{}, false
		}
		action.Steps = steps
		return action, true
	default:
		return MigrateAction{}, false
	}
}
