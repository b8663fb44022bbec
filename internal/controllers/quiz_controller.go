package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storymap/internal/config"
	"storymap/internal/models"
	"storymap/internal/quiz"
)

func loadBank(c *gin.Context) (*quiz.Bank, bool) {
	questions, err := config.Store.LoadQuiz(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("quiz: failed to load question bank")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quiz"})
		return nil, false
	}
	return quiz.NewBank(questions), true
}

// GetQuiz draws a random question set; ?count= sets its size.
func GetQuiz(c *gin.Context) {
	bank, ok := loadBank(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("count", "0"))
	if err != nil {
		n = 0
	}
	c.JSON(http.StatusOK, gin.H{"set": bank.Draw(n)})
}

// ScoreQuiz checks a submitted set of answers.
func ScoreQuiz(c *gin.Context) {
	var input struct {
		SetID   string              `json:"setId"`
		Answers []models.QuizAnswer `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	bank, ok := loadBank(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": bank.Score(input.SetID, input.Answers)})
}
