package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"backrooms/config"
	"backrooms/db"
	"backrooms/handlers"
	"backrooms/llm"
	"backrooms/middleware"
	"backrooms/social"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Initialize MongoDB connection
	err = db.InitMongoDB()
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer db.Close()
	db.CreateBackroomIndexes()

	// One Gemini client for the process, injected everywhere
	geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: config.GetGeminiAPIKey(),
	})
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	generator := llm.NewGemini(geminiClient, config.GetGeminiModel())

	xClient := social.NewXClient(config.GetXClientID(), config.GetXClientSecret(), config.GetXRedirectURL())
	dispatcher := social.NewDispatcher(xClient, db.AgentTokenStore{})

	app := handlers.NewApp(generator, xClient, dispatcher)

	// Set up HTTP handlers
	http.HandleFunc("/agents", middleware.EnableCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			app.CreateAgent(w, r)
			return
		}
		app.ListAgents(w, r)
	}))
	http.HandleFunc("/agents/", middleware.EnableCORS(app.AgentDetailREST))
	http.HandleFunc("/backrooms", middleware.EnableCORS(app.BackroomFeed))
	http.HandleFunc("/backrooms/", middleware.EnableCORS(app.BackroomDetailREST))
	http.HandleFunc("/backrooms/generate", middleware.EnableCORS(app.GenerateBackroom))
	http.HandleFunc("/backrooms/continue", middleware.EnableCORS(app.ContinueBackroom))
	http.HandleFunc("/polls", middleware.EnableCORS(app.CreatePoll))
	http.HandleFunc("/polls/vote", middleware.EnableCORS(app.VotePoll))
	http.HandleFunc("/polls/resolve", middleware.EnableCORS(app.ResolvePoll))
	http.HandleFunc("/tweets/pending", middleware.EnableCORS(app.PendingTweets))
	http.HandleFunc("/tweets/post", middleware.EnableCORS(app.PostTweet))
	http.HandleFunc("/auth/x/begin", middleware.EnableCORS(app.BeginAuth))
	http.HandleFunc("/auth/x/callback", app.AuthCallback)

	addr := config.GetServerAddr()
	fmt.Printf("Server running on http://localhost%s\n", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
