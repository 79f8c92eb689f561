package main

import "github.com/lavrelin/offtrix-sub000/bot"

func main() {
	bot.Start()
}
