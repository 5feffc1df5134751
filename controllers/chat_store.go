package controllers

import (
	"errors"
	"time"

	"DemoHub/models"

	"gorm.io/gorm"
)

var errChatNotFound = errors.New("chat not found")

func orderedMessages(tx *gorm.DB) *gorm.DB {
	return tx.Order("seq asc").Order("created_at asc")
}

// findOwnedChat loads chatID only when it belongs to uid.
func findOwnedChat(db *gorm.DB, uid uint, chatID string, withMessages bool) (models.Chat, error) {
	var ch models.Chat
	q := db.Where("id = ? AND user_id = ?", chatID, uid)
	if withMessages {
		q = q.Preload("Messages", orderedMessages)
	}
	if err := q.First(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Chat{}, errChatNotFound
		}
		return models.Chat{}, err
	}
	return ch, nil
}

func touchChat(tx *gorm.DB, chatID string) error {
	return tx.Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", time.Now().UTC()).Error
}

// replaceMessages swaps the whole transcript of chatID in one transaction.
func replaceMessages(db *gorm.DB, chatID string, msgs []models.UIMessage) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if len(msgs) > 0 {
			rows := make([]models.Message, 0, len(msgs))
			for i, m := range msgs {
				rows = append(rows, models.MessageFromUI(chatID, i, m))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return touchChat(tx, chatID)
	})
}

// appendMessage adds msg after the current last message of chatID.
func appendMessage(db *gorm.DB, chatID string, msg models.UIMessage) (models.Message, error) {
	var row models.Message
	err := db.Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&models.Message{}).Where("chat_id = ?", chatID).Select("COALESCE(MAX(seq), -1)").Scan(&maxSeq).Error; err != nil {
			return err
		}
		row = models.MessageFromUI(chatID, maxSeq+1, msg)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return touchChat(tx, chatID)
	})
	return row, err
}

// deleteChat removes a chat and its messages.
func deleteChat(tx *gorm.DB, chatID string) error {
	if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", chatID).Delete(&models.Chat{}).Error
}
